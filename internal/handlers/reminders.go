package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mesafacil/reservas-backend/internal/jobs"
)

// ReminderHandler exposes a manual trigger for the reminder sweep.
type ReminderHandler struct {
	job *jobs.ReminderJob
}

func NewReminderHandler(job *jobs.ReminderJob) *ReminderHandler {
	return &ReminderHandler{job: job}
}

// RunSweep is POST /jobs/reminders/run. An optional restaurant_id
// query param limits the sweep to one tenant. Useful for testing the
// flow without waiting for the daily schedule.
func (h *ReminderHandler) RunSweep(c *fiber.Ctx) error {
	result := h.job.RunSweep(c.UserContext(), c.Query("restaurant_id"))
	return c.JSON(result)
}
