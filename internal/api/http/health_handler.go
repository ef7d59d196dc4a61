package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-service/internal/persistence"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis
	version  string
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(postgres *persistence.Postgres, redis *persistence.Redis, version string) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis, version: version}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready reports dependency readiness. Redis is advisory only; the
// service degrades without it.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if err := h.postgres.Ping(c.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}
	if err := h.redis.Ping(c.Context()); err != nil {
		checks["redis"] = "degraded: " + err.Error()
	} else {
		checks["redis"] = "ok"
	}

	status := nethttp.StatusOK
	if !healthy {
		status = nethttp.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"checks": checks, "version": h.version})
}
