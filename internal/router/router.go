package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-judge-api/internal/config"
	"github.com/noah-isme/gema-judge-api/internal/handler"
	"github.com/noah-isme/gema-judge-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProblemHandler    *handler.ProblemHandler
	SubmissionHandler *handler.SubmissionHandler
	JWTMiddleware     fiber.Handler
	AuthorGuard       fiber.Handler
	RunLimiter        fiber.Handler
	SubmitCooldown    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	problems := app.Group("/api/v2/problems", jwtMiddleware)
	if deps.ProblemHandler != nil {
		deps.ProblemHandler.Register(problems, deps.AuthorGuard)
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterProblemRoutes(problems, handler.SubmissionRouteGuards{
			Run:    deps.RunLimiter,
			Submit: deps.SubmitCooldown,
		})

		submissions := app.Group("/api/v2/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}
}
