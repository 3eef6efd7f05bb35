package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"planner/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newBufferedGormLogger(debug bool) (*gormSlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Env.Debug = debug
	l := newGormSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), cfg)

	return l.(*gormSlogLogger), &buf
}

func TestGormSlogLogger_ParamsFilterDropsBoundValues(t *testing.T) {
	l, _ := newBufferedGormLogger(true)

	sql, params := l.ParamsFilter(context.Background(), "INSERT INTO credentials (username,password_hash) VALUES ($1,$2)", "alice", "$argon2id$...")

	assert.Equal(t, "INSERT INTO credentials (username,password_hash) VALUES ($1,$2)", sql)
	assert.Nil(t, params)
}

func TestGormSlogLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("record not found is silent", func(t *testing.T) {
		l, buf := newBufferedGormLogger(false)
		l.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("failures are logged", func(t *testing.T) {
		l, buf := newBufferedGormLogger(false)
		l.Trace(context.Background(), time.Now(), query, assert.AnError)
		assert.Contains(t, buf.String(), "GORM query failed")
	})

	t.Run("slow queries are logged", func(t *testing.T) {
		l, buf := newBufferedGormLogger(false)
		l.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
		assert.Contains(t, buf.String(), "GORM slow query")
	})

	t.Run("fast queries only in debug", func(t *testing.T) {
		l, buf := newBufferedGormLogger(false)
		l.Trace(context.Background(), time.Now(), query, nil)
		assert.Empty(t, buf.String())

		l, buf = newBufferedGormLogger(true)
		l.Trace(context.Background(), time.Now(), query, nil)
		assert.Contains(t, buf.String(), "GORM query")
	})
}
