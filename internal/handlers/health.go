package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health is GET /health.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
