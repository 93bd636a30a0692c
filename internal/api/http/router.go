package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	users := app.Group("/users")
	users.Post("", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)

	protected := users.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("", cfg.Users.FindByEmail)
	protected.Put("", cfg.Users.Update)
	protected.Post("/addresses", cfg.Users.AddAddress)
	protected.Put("/addresses/:id", cfg.Users.UpdateAddress)
	protected.Post("/phones", cfg.Users.AddPhone)
	protected.Put("/phones/:id", cfg.Users.UpdatePhone)
	protected.Delete("/:email", cfg.Users.Delete)
}
