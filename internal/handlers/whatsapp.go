package handlers

import (
	"bytes"
	"encoding/xml"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/mesafacil/reservas-backend/internal/services"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

// WhatsAppHandler receives Twilio webhook posts and answers with TwiML.
type WhatsAppHandler struct {
	tenants *services.TenantResolver
	dialog  *services.Dialog
}

// NewWhatsAppHandler wires the webhook endpoint.
func NewWhatsAppHandler(tenants *services.TenantResolver, dialog *services.Dialog) *WhatsAppHandler {
	return &WhatsAppHandler{tenants: tenants, dialog: dialog}
}

// HandleIncoming is POST /webhook/whatsapp.
func (h *WhatsAppHandler) HandleIncoming(c *fiber.Ctx) error {
	from := c.FormValue("From")
	to := c.FormValue("To")
	body := c.FormValue("Body")
	messageSid := c.FormValue("MessageSid")
	numMedia := c.FormValue("NumMedia", "0")

	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "From and To are required",
		})
	}

	log.Printf("📥 WhatsApp from %s to %s (sid %s, media %s)", from, to, messageSid, numMedia)
	if numMedia != "0" && body == "" {
		return twiml(c, "Por ahora solo puedo leer mensajes de texto 🙏 ¿Me escribís qué necesitás?")
	}

	restaurant, err := h.tenants.Resolve(to)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("⚠️ webhook for unknown number %s", to)
			return twiml(c, "Este número todavía no está configurado. Disculpá las molestias 🙏")
		}
		log.Printf("❌ tenant lookup for %s failed: %v", to, err)
		return twiml(c, "Estamos con un problema técnico 😔. Intentá de nuevo en unos minutos.")
	}

	reply, err := h.dialog.Handle(c.UserContext(), restaurant, from, body)
	if err != nil {
		log.Printf("❌ dialog for %s failed: %v", from, err)
		return twiml(c, "Estamos con un problema técnico 😔. Intentá de nuevo en unos minutos.")
	}
	return twiml(c, reply)
}

// twiml renders the Twilio messaging response. An empty body means reply
// with silence.
func twiml(c *fiber.Ctx, body string) error {
	c.Set(fiber.HeaderContentType, "application/xml")
	if body == "" {
		return c.SendString("<Response></Response>")
	}
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(body)); err != nil {
		return err
	}
	return c.SendString("<Response><Message>" + buf.String() + "</Message></Response>")
}
