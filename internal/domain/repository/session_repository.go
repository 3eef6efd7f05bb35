package repository

import (
	"context"
	"errors"
	"time"

	"planner/internal/domain/entity"
)

// ErrSessionNotFound is returned when a session id is unknown or already evicted.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists server-side sessions. Evicting expired sessions
// is the store's job; the adapter only creates, reads, touches and destroys.
type SessionRepository interface {
	// Create issues a new session for userID that expires after ttl.
	Create(ctx context.Context, userID int64, ttl time.Duration) (*entity.Session, error)

	// FindByID returns the session or ErrSessionNotFound.
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// Touch records activity for idle-timeout tracking.
	Touch(ctx context.Context, id string, at time.Time) error

	// Destroy removes the session. Destroying an unknown id is not an error.
	Destroy(ctx context.Context, id string) error

	// DeleteExpired removes every session past its absolute expiry and
	// returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
