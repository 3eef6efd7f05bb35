package auth

import (
	"context"
	"runtime"

	"planner/internal/domain/service"
	"planner/internal/errors"

	"golang.org/x/sync/semaphore"
)

// limitedHasher bounds how many CPU-hard hash computations run at once, so a
// burst of logins queues instead of starving unrelated requests.
type limitedHasher struct {
	next service.PasswordHasher
	sem  *semaphore.Weighted
}

// NewLimitedHasher wraps next with a concurrency limit; a non-positive limit means GOMAXPROCS.
func NewLimitedHasher(next service.PasswordHasher, limit int64) service.PasswordHasher {
	if limit <= 0 {
		limit = int64(runtime.GOMAXPROCS(0))
	}

	return &limitedHasher{
		next: next,
		sem:  semaphore.NewWeighted(limit),
	}
}

func (h *limitedHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", errors.WithStack(err)
	}
	defer h.sem.Release(1)

	return h.next.Hash(ctx, password)
}

func (h *limitedHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, errors.WithStack(err)
	}
	defer h.sem.Release(1)

	return h.next.Verify(ctx, password, hash)
}

func (h *limitedHasher) NeedsUpgrade(hash string) bool {
	return h.next.NeedsUpgrade(hash)
}
