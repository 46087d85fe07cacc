package models

import (
	"time"

	"gorm.io/gorm"
)

// Restaurant is one tenant's configuration record. The merged menu/info
// documents are loaded lazily from the local document cache and attached
// in-memory; they are never written back to the database.
type Restaurant struct {
	ID     string `json:"id" gorm:"primaryKey"`
	Name   string `json:"nombre"`
	Status string `json:"estado" gorm:"index"` // "activo" or "inactivo"

	// Gateway sender credentials. Empty fields fall back to the global
	// Twilio environment configuration.
	TwilioAccountSID  string `json:"twilio_account_sid"`
	TwilioAuthToken   string `json:"twilio_auth_token"`
	TwilioPhoneNumber string `json:"twilio_phone_number" gorm:"index"`

	ContactPhone    string `json:"contact_phone"`
	ContactWhatsApp string `json:"contact_whatsapp"`
	Address         string `json:"address"`

	Capacity int `json:"capacity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Cached documents, attached by the tenant resolver. Not persisted.
	Menu *MenuDocument `json:"-" gorm:"-"`
	Info *InfoDocument `json:"-" gorm:"-"`
}

func (Restaurant) TableName() string {
	return "restaurantes"
}

// Restaurant status constants
const (
	RestaurantStatusActive   = "activo"
	RestaurantStatusInactive = "inactivo"
)

// MenuDocument is the per-tenant menu file keyed by weekday
// ("lunes".."domingo"), each day split into lunch and dinner items.
type MenuDocument struct {
	Days map[string]DayMenu `json:"dias_semana"`
}

// DayMenu holds the lunch and dinner offerings for one weekday.
type DayMenu struct {
	Lunch  []MenuItem `json:"almuerzo"`
	Dinner []MenuItem `json:"cena"`
}

// MenuItem is a single dish with an optional price.
type MenuItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}

// InfoDocument is the per-tenant info file: contact details, opening hours,
// policies and reservation defaults.
type InfoDocument struct {
	Contact struct {
		Address  string `json:"address"`
		Phone    string `json:"phone"`
		WhatsApp string `json:"whatsapp"`
	} `json:"contact"`
	Hours    map[string]string `json:"hours"`
	Policies map[string]string `json:"policies"`
	Capacity struct {
		Total int `json:"total"`
	} `json:"capacity"`
	Reservations struct {
		InitialStatus string `json:"estado_inicial"`
	} `json:"reservas"`
}

// EffectiveCapacity prefers the info document's capacity over the row value.
func (r *Restaurant) EffectiveCapacity() int {
	if r.Info != nil && r.Info.Capacity.Total > 0 {
		return r.Info.Capacity.Total
	}
	if r.Capacity > 0 {
		return r.Capacity
	}
	return 100
}

// InitialReservationStatus is the status a freshly persisted reservation
// gets for this tenant.
func (r *Restaurant) InitialReservationStatus() string {
	if r.Info != nil && r.Info.Reservations.InitialStatus != "" {
		return r.Info.Reservations.InitialStatus
	}
	return ReservationStatusConfirmed
}

// ContactPhoneDisplay returns the number guests are told to call when the
// bot cannot help, preferring the info document.
func (r *Restaurant) ContactPhoneDisplay() string {
	if r.Info != nil && r.Info.Contact.Phone != "" {
		return r.Info.Contact.Phone
	}
	if r.ContactPhone != "" {
		return r.ContactPhone
	}
	return "nuestro número de contacto"
}

// BeforeCreate stamps a default status.
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.Status == "" {
		r.Status = RestaurantStatusActive
	}
	return nil
}
