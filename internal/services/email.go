package services

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// SMTPMailer sends reservation confirmation emails through a plain SMTP
// relay configured via environment variables.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailerFromEnv returns nil when SMTP_HOST is unset, disabling
// email without further configuration.
func NewSMTPMailerFromEnv() *SMTPMailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

func (m *SMTPMailer) SendConfirmation(r *models.Restaurant, res *models.Reservation) error {
	subject := fmt.Sprintf("Confirmación de reserva - %s", r.Name)
	body := fmt.Sprintf(
		"Hola %s,\n\nTu reserva en %s quedó registrada:\n\n  Fecha: %s\n  Hora: %s\n  Personas: %d\n  Código: %s\n\n¡Te esperamos!\n%s",
		res.Name, r.Name, displayDate(res.Date), res.Time, res.PartySize, shortID(res.ID), r.Name,
	)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.from, res.Email, subject, body,
	))

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{res.Email}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", res.Email, err)
	}
	return nil
}
