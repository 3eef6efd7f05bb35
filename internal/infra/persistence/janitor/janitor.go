// Package janitor evicts expired sessions from stores without native TTL support.
package janitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"planner/internal/domain/lifecycle"
	"planner/internal/domain/repository"
)

const DefaultInterval = 5 * time.Minute

// Janitor periodically calls DeleteExpired on a session store.
type Janitor struct {
	sessions repository.SessionRepository
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a janitor; a non-positive interval selects DefaultInterval.
func New(sessions repository.SessionRepository, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Janitor{
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the sweep loop. It returns immediately.
func (j *Janitor) Start(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()

	return nil
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop(context.Context) error {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()

	return nil
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one eviction pass.
func (j *Janitor) Sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	removed, err := j.sessions.DeleteExpired(sweepCtx)
	if err != nil {
		j.logger.Warn("Expired session sweep failed", slog.Any("error", err))

		return
	}

	if removed > 0 {
		j.logger.Debug("Evicted expired sessions", slog.Int64("count", removed))
	}
}
