package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/peibanapp/peiban-api/internal/config"
	"github.com/peibanapp/peiban-api/internal/handler"
	"github.com/peibanapp/peiban-api/internal/middleware"
	"github.com/peibanapp/peiban-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	PetHandler      *handler.PetHandler
	HealthHandler   *handler.HealthHandler
	ActivityHandler *handler.ActivityHandler
	GuideHandler    *handler.GuideHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/healthz", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 10, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", jwtMiddleware)
		admin := api.Group("/admin", jwtMiddleware)
		deps.UserHandler.Register(users, admin)
	}

	if deps.PetHandler != nil {
		pets := api.Group("/pets", jwtMiddleware)
		deps.PetHandler.Register(pets)
	}

	if deps.HealthHandler != nil {
		health := api.Group("/health", jwtMiddleware)
		deps.HealthHandler.Register(health)
	}

	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities)
	}

	if deps.GuideHandler != nil {
		guides := api.Group("/guides", jwtMiddleware)
		deps.GuideHandler.Register(guides)
	}
}
