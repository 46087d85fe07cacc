package models

import "time"

// DialogState identifies where a guest is inside the reservation flow.
type DialogState string

// Dialog states, in the order the flow normally walks them.
const (
	StateIdle                 DialogState = "inicio"
	StateAwaitingDate         DialogState = "esperando_fecha"
	StateAwaitingPartySize    DialogState = "esperando_personas"
	StateAwaitingInitialOK    DialogState = "esperando_confirmacion_inicial"
	StateAwaitingName         DialogState = "esperando_nombre"
	StateAwaitingPhone        DialogState = "esperando_telefono"
	StateAwaitingEmail        DialogState = "esperando_email"
	StateAwaitingFinalConfirm DialogState = "esperando_confirmacion"
)

// InDialog reports whether the guest is mid-flow (anything past idle).
func (s DialogState) InDialog() bool {
	return s != "" && s != StateIdle
}

// ReservationDraft accumulates slot values while the dialog runs.
type ReservationDraft struct {
	Date      string `json:"fecha,omitempty"` // DD/MM/YYYY
	Time      string `json:"hora,omitempty"`  // HH:MM
	PartySize int    `json:"personas,omitempty"`
	Name      string `json:"nombre,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Reminder conversation statuses.
const (
	ReminderStatusPending   = "pendiente"
	ReminderStatusConfirmed = "confirmado"
	ReminderStatusCancelled = "cancelado"
	ReminderStatusReset     = "reiniciado"
)

// ReminderContext marks a session as belonging to a reminder conversation
// rather than a booking dialog. It is stored under every phone variant so
// the guest's reply matches regardless of how the gateway formats the
// sender number.
type ReminderContext struct {
	IsReminder    bool       `json:"is_reminder"`
	ReservationID string     `json:"reserva_id"`
	RestaurantID  string     `json:"restaurant_id"`
	Phone         string     `json:"telefono"`
	Date          string     `json:"fecha"`
	Time          string     `json:"hora"`
	PartySize     int        `json:"personas"`
	Name          string     `json:"nombre"`
	Status        string     `json:"conversation_status"`
	SentAt        time.Time  `json:"enviado_en"`
	CompletedAt   *time.Time `json:"completado_en,omitempty"`
}

// Completed reports whether the reminder conversation already reached a
// terminal status.
func (r *ReminderContext) Completed() bool {
	return r != nil && r.Status != "" && r.Status != ReminderStatusPending
}

// Session is the per-guest conversation state kept in the session store.
type Session struct {
	Phone        string           `json:"telefono"`
	RestaurantID string           `json:"restaurant_id"`
	State        DialogState      `json:"estado"`
	Draft        ReservationDraft `json:"datos_reserva"`
	Reminder     *ReminderContext `json:"reminder,omitempty"`

	GuestName       string    `json:"nombre_cliente,omitempty"`
	LastInteraction time.Time `json:"timestamp"`
	RedirectCount   int       `json:"redirect_count,omitempty"`
}

// NewSession returns an idle session for the given guest and tenant.
func NewSession(phone, restaurantID string) *Session {
	return &Session{
		Phone:           phone,
		RestaurantID:    restaurantID,
		State:           StateIdle,
		LastInteraction: time.Now(),
	}
}

// ResetDialog clears the booking dialog but keeps the guest identity.
func (s *Session) ResetDialog() {
	s.State = StateIdle
	s.Draft = ReservationDraft{}
	s.Reminder = nil
	s.RedirectCount = 0
}
