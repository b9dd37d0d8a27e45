package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/dto"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// ProblemHandler exposes problem authoring and browsing endpoints.
type ProblemHandler struct {
	service service.ProblemService
	logger  zerolog.Logger
}

// NewProblemHandler builds a problem handler.
func NewProblemHandler(service service.ProblemService, logger zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		service: service,
		logger:  logger.With().Str("component", "problem_handler").Logger(),
	}
}

// Register wires the handler routes into the router group. authorGuard runs
// in front of problem creation when set.
func (h *ProblemHandler) Register(router fiber.Router, authorGuard fiber.Handler) {
	router.Get("", h.list)
	router.Get("/solved", h.solved)
	router.Get("/:id", h.get)
	router.Post("", withGuard(authorGuard, h.create)...)
}

func (h *ProblemHandler) list(c *fiber.Ctx) error {
	filter := dto.ProblemFilter{
		Difficulty: c.Query("difficulty"),
		Search:     c.Query("search"),
	}
	if tags := c.Query("tags"); tags != "" {
		filter.Tags = splitAndTrim(tags)
	}
	if page, err := parseQueryInt(c, "page"); err == nil {
		filter.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		filter.PageSize = pageSize
	}

	problems, err := h.service.List(withRequestContext(c), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list problems")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve problems")
	}

	return utils.OK(c, problems.Items, "problems retrieved", problems.Pagination)
}

func (h *ProblemHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problem, err := h.service.Get(withRequestContext(c), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *ProblemHandler) solved(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	problems, err := h.service.ListSolved(withRequestContext(c), userID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list solved problems")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to retrieve solved problems")
	}

	return utils.SendSuccess(c, "solved problems retrieved", problems)
}

func (h *ProblemHandler) create(c *fiber.Ctx) error {
	var payload dto.ProblemCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	problem, err := h.service.Create(withRequestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "problem created", problem)
}

func (h *ProblemHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, sendErr := sendEvaluationError(c, h.logger, err); handled {
		return sendErr
	}

	switch {
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "problem not found")
	case errors.Is(err, service.ErrDuplicateReference):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
