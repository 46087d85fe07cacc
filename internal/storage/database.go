package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DatabaseStore is the Postgres-backed Store. Every call goes through
// the retry wrapper; a miss is reported as ErrNotFound without retrying.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open GORM handle.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// firstWithRetry runs a single-row query, separating "no row" from
// transient failures so a miss never burns retry attempts.
func firstWithRetry(op string, query func() error) error {
	notFound := false
	err := WithRetry(op, func() error {
		err := query()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if notFound {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) GetRestaurant(id string) (*models.Restaurant, error) {
	var r models.Restaurant
	err := firstWithRetry("get restaurant", func() error {
		return d.db.Where("id = ?", id).First(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DatabaseStore) GetRestaurantByTwilioNumber(number string) (*models.Restaurant, error) {
	var r models.Restaurant
	err := firstWithRetry("get restaurant by number", func() error {
		return d.db.Where("twilio_phone_number = ? AND status = ?", number, models.RestaurantStatusActive).First(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DatabaseStore) ListActiveRestaurants() ([]models.Restaurant, error) {
	var rs []models.Restaurant
	err := WithRetry("list active restaurants", func() error {
		return d.db.Where("status = ?", models.RestaurantStatusActive).Find(&rs).Error
	})
	return rs, err
}

func (d *DatabaseStore) CreateReservation(r *models.Reservation) error {
	return WithRetry("create reservation", func() error {
		return d.db.Create(r).Error
	})
}

func (d *DatabaseStore) GetReservation(id string) (*models.Reservation, error) {
	var r models.Reservation
	err := firstWithRetry("get reservation", func() error {
		return d.db.Where("id = ?", id).First(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DatabaseStore) UpdateReservation(r *models.Reservation) error {
	return WithRetry("update reservation", func() error {
		return d.db.Save(r).Error
	})
}

func (d *DatabaseStore) SetReservationStatus(id, status string) error {
	now := time.Now()
	updates := map[string]interface{}{"status": status, "updated_at": now}
	switch status {
	case models.ReservationStatusConfirmed:
		updates["confirmed_at"] = now
	case models.ReservationStatusCancelled:
		updates["cancelled_at"] = now
	}
	return WithRetry("set reservation status", func() error {
		return d.db.Model(&models.Reservation{}).Where("id = ?", id).Updates(updates).Error
	})
}

func (d *DatabaseStore) MarkReminderSent(id string, at time.Time) error {
	return WithRetry("mark reminder sent", func() error {
		return d.db.Model(&models.Reservation{}).Where("id = ?", id).
			Updates(map[string]interface{}{"reminder_sent": true, "reminder_sent_at": at}).Error
	})
}

func (d *DatabaseStore) MarkReminderResponded(id string) error {
	return WithRetry("mark reminder responded", func() error {
		return d.db.Model(&models.Reservation{}).Where("id = ?", id).
			Update("reminder_responded", true).Error
	})
}

func (d *DatabaseStore) OccupiedSeats(restaurantID, date string) (int, error) {
	var total int64
	err := WithRetry("sum occupied seats", func() error {
		return d.db.Model(&models.Reservation{}).
			Where("restaurant_id = ? AND date = ? AND status NOT IN ?",
				restaurantID, date,
				[]string{models.ReservationStatusCancelled, models.ReservationStatusNoShow}).
			Select("COALESCE(SUM(party_size), 0)").
			Scan(&total).Error
	})
	return int(total), err
}

func (d *DatabaseStore) ReservationsNeedingReminder(date string) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := WithRetry("list reminder candidates", func() error {
		return d.db.
			Where("date = ? AND reminder_sent = ? AND status NOT IN ?",
				date, false,
				[]string{models.ReservationStatusCancelled, models.ReservationStatusNoShow}).
			Find(&rs).Error
	})
	return rs, err
}

func (d *DatabaseStore) SaveFeedback(f *models.Feedback) error {
	return WithRetry("save feedback", func() error {
		return d.db.Create(f).Error
	})
}
