package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/drl-go-api/internal/config"
	"github.com/noah-isme/drl-go-api/internal/handler"
	"github.com/noah-isme/drl-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler     *handler.ActivityHandler
	RegistrationHandler *handler.RegistrationHandler
	QRHandler           *handler.QRHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities)

		if deps.RegistrationHandler != nil {
			deps.RegistrationHandler.RegisterActivityScoped(activities)
		}
		if deps.QRHandler != nil {
			deps.QRHandler.Register(activities)
		}
	}

	if deps.RegistrationHandler != nil {
		registrations := api.Group("/registrations", jwtMiddleware)
		deps.RegistrationHandler.Register(registrations)
	}
}
