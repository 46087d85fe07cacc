package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation is one confirmed (or pending) booking made through the bot.
type Reservation struct {
	ID           string `json:"id" gorm:"primaryKey"`
	RestaurantID string `json:"restaurant_id" gorm:"index"`

	Date      string `json:"fecha" gorm:"index"` // YYYY-MM-DD
	Time      string `json:"hora"`               // HH:MM
	PartySize int    `json:"personas"`

	Name  string `json:"nombre_cliente"`
	Phone string `json:"telefono" gorm:"index"` // canonical +549 form
	Email string `json:"email"`

	Status string `json:"estado" gorm:"index"`
	Origin string `json:"origen"` // "whatsapp"

	ReminderSent      bool       `json:"reminder_sent"`
	ReminderSentAt    *time.Time `json:"reminder_sent_at"`
	ReminderResponded bool       `json:"reminder_responded"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Comments string `json:"comentarios"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservas"
}

// Reservation status constants
const (
	ReservationStatusPending   = "Pendiente"
	ReservationStatusConfirmed = "Confirmada"
	ReservationStatusCancelled = "Cancelada"
	ReservationStatusNoShow    = "No asistio"
)

// IsActive reports whether the reservation still occupies capacity.
func (r *Reservation) IsActive() bool {
	return r.Status != ReservationStatusCancelled && r.Status != ReservationStatusNoShow
}

// BeforeCreate assigns a UUID when none was given.
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Feedback is a free-form comment or complaint left by a guest.
type Feedback struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	RestaurantID string    `json:"restaurant_id" gorm:"index"`
	Phone        string    `json:"telefono"`
	Message      string    `json:"mensaje"`
	Rating       int       `json:"puntuacion"` // 0 when not given
	CreatedAt    time.Time `json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// BeforeCreate assigns a UUID when none was given.
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
