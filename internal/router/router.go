package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/learnhub-api/internal/config"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler  *handler.SubmissionHandler
	ReviewEventHandler *handler.ReviewEventHandler
	RankingHandler     *handler.RankingHandler
	AccountHandler     *handler.AccountHandler
	HealthChecks       map[string]handler.DependencyCheck
	JWTMiddleware      fiber.Handler
	UploadRateLimiter  fiber.Handler
	StaticUploadsDir   string
	StaticUploadsPath  string
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	if deps.StaticUploadsDir != "" && deps.StaticUploadsPath != "" {
		app.Static(deps.StaticUploadsPath, deps.StaticUploadsDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		if deps.ReviewEventHandler != nil {
			deps.ReviewEventHandler.Register(submissions.Group("/events"))
		}

		var guards []fiber.Handler
		if deps.UploadRateLimiter != nil {
			guards = append(guards, deps.UploadRateLimiter)
		}
		deps.SubmissionHandler.Register(submissions, guards...)
	}

	if deps.RankingHandler != nil {
		deps.RankingHandler.Register(api.Group("/rankings", jwtMiddleware))
	}

	if deps.AccountHandler != nil {
		deps.AccountHandler.Register(api.Group("/accounts", jwtMiddleware))
	}
}
