package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/database"
)

// HealthHandler reports whether the document store is reachable.
type HealthHandler struct {
	store   database.Store
	timeout time.Duration
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(store database.Store, timeout time.Duration) *HealthHandler {
	return &HealthHandler{store: store, timeout: timeout}
}

// Health pings the store.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "err": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
