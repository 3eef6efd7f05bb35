package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session binds a cookie-presented identifier to a single user.
type Session struct {
	ID         string    // Opaque random identifier carried by the session cookie.
	UserID     int64     // Credential id the session was issued for.
	CreatedAt  time.Time // Timestamp of the login that created the session.
	ExpiresAt  time.Time // Absolute expiry; the session is dead afterwards regardless of activity.
	LastSeenAt time.Time // Last time a guarded request presented the session.
}

// IsExpiredAt reports whether the absolute lifetime has elapsed at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// IsIdleAt reports whether the session has been unused for longer than idle at t.
// A non-positive idle timeout disables the check.
func (s *Session) IsIdleAt(t time.Time, idle time.Duration) bool {
	if idle <= 0 {
		return false
	}

	return t.Sub(s.LastSeenAt) > idle
}

// NewSessionID returns a random (v4) session identifier.
func NewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}
