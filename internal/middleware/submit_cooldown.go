package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// CooldownGuard is the slice of the submission cooldown store the middleware needs.
type CooldownGuard interface {
	TryAcquire(ctx context.Context, identity string) (bool, error)
	RetryAfter(ctx context.Context, identity string) (time.Duration, error)
}

// SubmitCooldown rejects a request with 429 while the caller's previous
// submission is still inside the cooldown window. identify maps the request
// to the caller identity; an empty identity is unauthorized.
func SubmitCooldown(guard CooldownGuard, identify func(c *fiber.Ctx) string, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "submit_cooldown").Logger()

	return func(c *fiber.Ctx) error {
		identity := identify(c)
		if identity == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		ctx := c.UserContext()
		acquired, err := guard.TryAcquire(ctx, identity)
		if err != nil {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("cooldown store unavailable")
			return utils.Fail(c, fiber.StatusServiceUnavailable, "submissions are temporarily unavailable", nil)
		}
		if acquired {
			return c.Next()
		}

		wait, err := guard.RetryAfter(ctx, identity)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read cooldown ttl")
		}
		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}

		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
		return utils.Fail(c, fiber.StatusTooManyRequests, "please wait before submitting again", fiber.Map{
			"retry_after_seconds": seconds,
		})
	}
}
