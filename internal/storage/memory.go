package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// MemoryStore keeps everything in maps. Used by tests and by local runs
// with USE_MEMORY_STORE=true, where no Postgres is around.
type MemoryStore struct {
	mu           sync.RWMutex
	restaurants  map[string]*models.Restaurant
	reservations map[string]*models.Reservation
	feedback     []models.Feedback
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		restaurants:  make(map[string]*models.Restaurant),
		reservations: make(map[string]*models.Reservation),
	}
}

// AddRestaurant seeds a tenant. Test helper.
func (m *MemoryStore) AddRestaurant(r *models.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status == "" {
		r.Status = models.RestaurantStatusActive
	}
	cp := *r
	m.restaurants[r.ID] = &cp
}

func (m *MemoryStore) GetRestaurant(id string) (*models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) GetRestaurantByTwilioNumber(number string) (*models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.restaurants {
		if r.TwilioPhoneNumber == number && r.Status == models.RestaurantStatusActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListActiveRestaurants() ([]models.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Restaurant
	for _, r := range m.restaurants {
		if r.Status == models.RestaurantStatusActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateReservation(r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetReservation(id string) (*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateReservation(r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

func (m *MemoryStore) SetReservationStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	r.Status = status
	r.UpdatedAt = now
	switch status {
	case models.ReservationStatusConfirmed:
		r.ConfirmedAt = &now
	case models.ReservationStatusCancelled:
		r.CancelledAt = &now
	}
	return nil
}

func (m *MemoryStore) MarkReminderSent(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.ReminderSent = true
	r.ReminderSentAt = &at
	return nil
}

func (m *MemoryStore) MarkReminderResponded(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.ReminderResponded = true
	return nil
}

func (m *MemoryStore) OccupiedSeats(restaurantID, date string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID && r.Date == date && r.IsActive() {
			total += r.PartySize
		}
	}
	return total, nil
}

func (m *MemoryStore) ReservationsNeedingReminder(date string) ([]models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Reservation
	for _, r := range m.reservations {
		if strings.EqualFold(r.Date, date) && !r.ReminderSent && r.IsActive() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveFeedback(f *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.CreatedAt = time.Now()
	m.feedback = append(m.feedback, *f)
	return nil
}

// FeedbackCount reports stored feedback entries. Test helper.
func (m *MemoryStore) FeedbackCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feedback)
}

// FeedbackEntries returns a copy of the stored feedback. Test helper.
func (m *MemoryStore) FeedbackEntries() []models.Feedback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Feedback, len(m.feedback))
	copy(out, m.feedback)
	return out
}
