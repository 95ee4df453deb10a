package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/peibanapp/peiban-api/internal/config"
	"github.com/peibanapp/peiban-api/internal/utils"
)

// HealthCheckResponse represents the payload returned by the liveness endpoint.
type HealthCheckResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthCheckResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
