package storage

import (
	"time"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// Store abstracts reservation persistence so the handlers and jobs can
// run against Postgres in production and an in-memory store in tests.
type Store interface {
	// Restaurants
	GetRestaurant(id string) (*models.Restaurant, error)
	GetRestaurantByTwilioNumber(number string) (*models.Restaurant, error)
	ListActiveRestaurants() ([]models.Restaurant, error)

	// Reservations
	CreateReservation(r *models.Reservation) error
	GetReservation(id string) (*models.Reservation, error)
	UpdateReservation(r *models.Reservation) error
	SetReservationStatus(id, status string) error
	MarkReminderSent(id string, at time.Time) error
	MarkReminderResponded(id string) error

	// OccupiedSeats sums the party sizes of active reservations for one
	// restaurant and date (YYYY-MM-DD).
	OccupiedSeats(restaurantID, date string) (int, error)

	// ReservationsNeedingReminder lists active reservations for the given
	// date that have not been sent a reminder yet.
	ReservationsNeedingReminder(date string) ([]models.Reservation, error)

	// Feedback
	SaveFeedback(f *models.Feedback) error
}

var store Store

// SetStore installs the process-wide store.
func SetStore(s Store) {
	store = s
}

// GetStore returns the installed store.
func GetStore() Store {
	return store
}
