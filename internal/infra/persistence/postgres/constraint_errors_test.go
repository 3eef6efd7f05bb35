package postgres

import (
	"fmt"
	"testing"
	"time"

	"planner/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "gorm translated", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pgx error text", err: fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_credentials_username" (SQLSTATE 23505)`), want: true},
		{name: "other", err: fmt.Errorf("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintViolation(tt.err))
		})
	}
}

func TestToSessionDomain(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()

	sess := toSessionDomain(&model.SessionModel{
		ID:         id,
		UserID:     3,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		LastSeenAt: now,
	})

	assert.Equal(t, id.String(), sess.ID)
	assert.Equal(t, int64(3), sess.UserID)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
}
