package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/phone"
)

// BuildReminderMessage renders the day-before reminder with the 1/2
// answer instructions.
func BuildReminderMessage(r *models.Restaurant, res *models.Reservation) string {
	return fmt.Sprintf(
		"¡Hola, %s! 👋 Te recordamos tu reserva en *%s*:\n\n📅 %s a las %s\n👥 %d personas\n\n¿Nos confirmás?\n\n*1* - Sí, voy ✅\n*2* - No puedo, cancelar ❌",
		res.Name, r.Name, displayDate(res.Date), res.Time, res.PartySize,
	)
}

// NewReminderContext builds the session payload stored under every phone
// variant when a reminder goes out.
func NewReminderContext(res *models.Reservation, sentAt time.Time) *models.ReminderContext {
	return &models.ReminderContext{
		IsReminder:    true,
		ReservationID: res.ID,
		RestaurantID:  res.RestaurantID,
		Phone:         res.Phone,
		Date:          res.Date,
		Time:          res.Time,
		PartySize:     res.PartySize,
		Name:          res.Name,
		Status:        models.ReminderStatusPending,
		SentAt:        sentAt,
	}
}

// handleReminderReply resolves a message that arrives while a reminder
// conversation is open. Terminal answers are idempotent: once confirmed
// or cancelled, a thank-you gets a courtesy reply and anything else is
// ignored so duplicate webhooks cannot flip the reservation again.
func (d *Dialog) handleReminderReply(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	rem := sess.Reminder

	if rem.Completed() {
		if IsThanks(msg) {
			return fmt.Sprintf("¡De nada! Te esperamos en %s 😊", r.Name), nil
		}
		if IsReset(msg) {
			sess.ResetDialog()
			d.saveAllVariants(ctx, sess)
			return resetReply(r), nil
		}
		return "", nil
	}

	switch {
	case IsConfirmation(msg):
		if err := d.store.SetReservationStatus(rem.ReservationID, models.ReservationStatusConfirmed); err != nil {
			log.Printf("❌ reminder confirm for %s failed: %v", rem.ReservationID, err)
			return fmt.Sprintf("No pude registrar tu confirmación 😔. Llamanos al %s y lo resolvemos.", r.ContactPhoneDisplay()), nil
		}
		d.markResponded(rem.ReservationID)
		d.closeReminder(ctx, sess, models.ReminderStatusConfirmed)
		return fmt.Sprintf("¡Gracias, %s! Tu reserva del %s a las %s queda confirmada ✅ ¡Te esperamos!", rem.Name, displayDate(rem.Date), rem.Time), nil

	case IsRejection(msg):
		if err := d.store.SetReservationStatus(rem.ReservationID, models.ReservationStatusCancelled); err != nil {
			log.Printf("❌ reminder cancel for %s failed: %v", rem.ReservationID, err)
			return fmt.Sprintf("No pude registrar la cancelación 😔. Llamanos al %s y lo resolvemos.", r.ContactPhoneDisplay()), nil
		}
		d.markResponded(rem.ReservationID)
		d.closeReminder(ctx, sess, models.ReminderStatusCancelled)
		return fmt.Sprintf("Listo, cancelé tu reserva del %s 😔. ¡Esperamos verte pronto en %s!", displayDate(rem.Date), r.Name), nil

	case IsReset(msg):
		sess.ResetDialog()
		d.saveAllVariants(ctx, sess)
		return resetReply(r), nil

	default:
		d.saveAllVariants(ctx, sess)
		return "Solo necesito que respondas *1* para confirmar tu reserva o *2* para cancelarla 😊", nil
	}
}

func (d *Dialog) markResponded(reservationID string) {
	if err := d.store.MarkReminderResponded(reservationID); err != nil {
		log.Printf("⚠️ reminder responded flag for %s not set: %v", reservationID, err)
	}
}

// closeReminder stamps the terminal status on the context and rewrites
// it under every phone variant so any spelling of the sender hits the
// same closed conversation.
func (d *Dialog) closeReminder(ctx context.Context, sess *models.Session, status string) {
	now := d.now()
	sess.Reminder.Status = status
	sess.Reminder.CompletedAt = &now
	d.saveAllVariants(ctx, sess)
}

// saveAllVariants persists the session under the canonical number and
// the gateway spellings of it.
func (d *Dialog) saveAllVariants(ctx context.Context, sess *models.Session) {
	for _, variant := range phone.Variants(sess.Phone) {
		cp := *sess
		cp.Phone = variant
		d.save(ctx, &cp)
	}
}
