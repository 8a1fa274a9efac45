package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/vetted-notifier/internal/config"
	"github.com/noah-isme/vetted-notifier/internal/handler"
	"github.com/noah-isme/vetted-notifier/internal/middleware"
	"github.com/noah-isme/vetted-notifier/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	NotificationHandler *handler.NotificationHandler
	IntegrityHandler    *handler.IntegrityHandler
	HealthProbes        map[string]handler.HealthProbe
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	protected := []fiber.Handler{jwtMiddleware, middleware.RequireRole(middleware.RoleServiceRole, middleware.RoleAdmin)}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/submissions", protected...))
	}

	if deps.IntegrityHandler != nil {
		deps.IntegrityHandler.Register(api.Group("/integrity", protected...))
	}
}
