package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campustools/canvas-digest/internal/config"
	"github.com/campustools/canvas-digest/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DigestHandler *handler.DigestHandler
	CacheEnabled  bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.CacheEnabled))

	if deps.DigestHandler != nil {
		deps.DigestHandler.Register(api)
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
