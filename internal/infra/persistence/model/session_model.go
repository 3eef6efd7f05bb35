package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'sessions' table.
type SessionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     int64     `gorm:"not null;index:idx_sessions_user_id"`
	CreatedAt  time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index:idx_sessions_expires_at"`
	LastSeenAt time.Time `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
