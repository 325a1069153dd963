package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/provisioning-service/internal/api/http/handlers"
	"github.com/spec-kit/provisioning-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Provisioning *handlers.ProvisioningHandler
	Metrics      *handlers.MetricsHandler
	APIKey       *auth.APIKeyAuth
}

// RegisterRoutes wires HTTP routes. Health probes are registered ahead of the
// API key check; everything after it, unknown paths included, needs the key.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(cfg.APIKey.Handle)

	app.Get("/hello", handlers.Hello)
	app.Post("/mso-create-user-employee", cfg.Provisioning.Provision)
	app.Get("/provisioning-runs/:id", cfg.Provisioning.GetRun)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Snapshot)
	}
}
