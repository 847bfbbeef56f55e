package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	ping func() error
}

// NewHealthHandler creates a new HealthHandler. ping checks the database.
func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// RegisterRoutes registers the health check route.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth responds 200 when the database answers and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	health, database := "healthy", "ok"
	if err := h.ping(); err != nil {
		status = fiber.StatusServiceUnavailable
		health, database = "degraded", "unavailable"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   health,
		"database": database,
		"time":     time.Now().Format(time.RFC3339),
	})
}
