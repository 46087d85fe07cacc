package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mesafacil/reservas-backend/internal/handlers"
	"github.com/mesafacil/reservas-backend/internal/middleware"
)

// Setup registers every endpoint.
func Setup(app *fiber.App, whatsapp *handlers.WhatsAppHandler, reminders *handlers.ReminderHandler) {
	app.Get("/health", handlers.Health)

	webhook := app.Group("/webhook", middleware.TwilioSignature())
	webhook.Post("/whatsapp", whatsapp.HandleIncoming)

	jobs := app.Group("/jobs")
	jobs.Post("/reminders/run", reminders.RunSweep)
}
