package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// SubmissionRouteGuards are optional middlewares placed in front of the
// run and submit endpoints.
type SubmissionRouteGuards struct {
	Run    fiber.Handler
	Submit fiber.Handler
}

// SubmissionHandler manages run, submit and submission history endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterProblemRoutes attaches the per-problem routes to the problems group.
func (h *SubmissionHandler) RegisterProblemRoutes(router fiber.Router, guards SubmissionRouteGuards) {
	router.Post("/:id/run", withGuard(guards.Run, h.run)...)
	router.Post("/:id/submit", withGuard(guards.Submit, h.submit)...)
	router.Get("/:id/submissions", h.history)
}

// Register attaches the routes to the submissions group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
}

func (h *SubmissionHandler) run(c *fiber.Ctx) error {
	problemID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	verdict, err := h.service.Run(withRequestContext(c), userIDFromContext(c), problemID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "program evaluated", verdict)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	problemID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	submission, err := h.service.Submit(withRequestContext(c), userID, problemID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", submission.ID).
		Uint("problem_id", problemID).
		Str("status", submission.Verdict.Status).
		Msg("submission judged")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission judged", submission)
}

func (h *SubmissionHandler) history(c *fiber.Ctx) error {
	problemID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, _ := parseQueryInt(c, "limit")
	submissions, err := h.service.ListForProblem(withRequestContext(c), userIDFromContext(c), problemID, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(withRequestContext(c), id, userIDFromContext(c), userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, sendErr := sendEvaluationError(c, h.logger, err); handled {
		return sendErr
	}

	switch {
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "problem not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrSubmissionForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func withGuard(guard fiber.Handler, handler fiber.Handler) []fiber.Handler {
	if guard == nil {
		return []fiber.Handler{handler}
	}
	return []fiber.Handler{guard, handler}
}
