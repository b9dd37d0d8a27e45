package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/gema-judge-api/internal/utils"
)

// RateLimit creates a per-user rate limiter middleware instance.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many requests, slow down", nil)
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			userID := c.IP()
			if value := c.Locals("user_id"); value != nil {
				if formatted := fmt.Sprintf("%v", value); formatted != "" && formatted != "0" {
					userID = formatted
				}
			}
			return fmt.Sprintf("%s:%s", identifier, userID)
		},
	})
}
