package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/evaluation"
	"github.com/noah-isme/gema-judge-api/internal/middleware"
	"github.com/noah-isme/gema-judge-api/internal/service"
	"github.com/noah-isme/gema-judge-api/internal/utils"
	"github.com/noah-isme/gema-judge-api/pkg/judge"
)

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// SubmitIdentity maps an authenticated request to its cooldown identity.
func SubmitIdentity(c *fiber.Ctx) string {
	userID := userIDFromContext(c)
	if userID == 0 {
		return ""
	}
	return service.SubmitIdentity(userID)
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// sendEvaluationError maps errors raised while judging a program. It reports
// false when err is not an evaluation error.
func sendEvaluationError(c *fiber.Ctx, logger zerolog.Logger, err error) (bool, error) {
	var (
		validationErrors validator.ValidationErrors
		failure          *evaluation.ValidationFailure
	)

	switch {
	case errors.As(err, &validationErrors):
		return true, utils.Fail(c, fiber.StatusBadRequest, "invalid request payload", validationErrors.Error())
	case errors.Is(err, evaluation.ErrUnsupportedLanguage):
		return true, utils.Fail(c, fiber.StatusBadRequest, "unsupported language", fiber.Map{
			"supported": evaluation.SupportedLanguages(),
		})
	case errors.As(err, &failure):
		return true, utils.Fail(c, fiber.StatusUnprocessableEntity, "reference solution failed validation", fiber.Map{
			"language": failure.Language,
			"status":   failure.Label,
		})
	case errors.Is(err, judge.ErrTimeout):
		requestLogger(logger, c).Warn().Err(err).Msg("judge did not finish in time")
		return true, utils.SendError(c, fiber.StatusGatewayTimeout, "judge timed out")
	case errors.Is(err, judge.ErrGateway), errors.Is(err, evaluation.ErrProtocol):
		requestLogger(logger, c).Error().Err(err).Msg("judge gateway failure")
		return true, utils.SendError(c, fiber.StatusBadGateway, "judge unavailable")
	default:
		return false, nil
	}
}
