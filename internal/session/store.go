// Package session keeps per-guest conversation state with a sliding
// 30 minute expiry.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// TTL is how long a conversation survives without a new message.
const TTL = 30 * time.Minute

// Store reads and writes sessions keyed by tenant and guest phone.
// Get returns (nil, nil) when no live session exists; expired sessions
// are deleted on read.
type Store interface {
	Get(ctx context.Context, restaurantID, phone string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, restaurantID, phone string) error
}

func key(restaurantID, phone string) string {
	return fmt.Sprintf("session:%s:%s", restaurantID, phone)
}

func expired(s *models.Session, now time.Time) bool {
	return now.Sub(s.LastInteraction) > TTL
}
