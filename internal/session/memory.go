package session

import (
	"context"
	"sync"
	"time"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// MemoryStore is the single-process session store for tests and local
// runs without Redis. Expiry is lazy: stale entries are dropped on read.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, restaurantID, phone string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(restaurantID, phone)
	s, ok := m.sessions[k]
	if !ok {
		return nil, nil
	}
	if expired(s, m.now()) {
		delete(m.sessions, k)
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastInteraction = m.now()
	cp := *s
	m.sessions[key(s.RestaurantID, s.Phone)] = &cp
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, restaurantID, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key(restaurantID, phone))
	return nil
}
