package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/campustools/canvas-digest/internal/config"
	"github.com/campustools/canvas-digest/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	DigestCache string    `json:"digest_cache"`
}

// HealthCheck returns a handler that reports application health along with
// whether digest caching is active for this process.
func HealthCheck(cfg config.Config, cacheEnabled bool) fiber.Handler {
	cacheState := "disabled"
	if cacheEnabled {
		cacheState = "enabled"
	}

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			DigestCache: cacheState,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
