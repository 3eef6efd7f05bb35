package memory

import (
	"context"
	"sync"
	"time"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"
	"planner/internal/errors"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
	now      func() time.Time
}

// NewSessionRepository returns an empty session store. Expired records stay
// until DeleteExpired runs; see the janitor package.
func NewSessionRepository() repository.SessionRepository {
	return newSessionRepository(time.Now)
}

func newSessionRepository(now func() time.Time) *sessionRepository {
	return &sessionRepository{
		sessions: make(map[string]*entity.Session),
		now:      now,
	}
}

func (r *sessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	id, err := entity.NewSessionID()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate session id")
	}

	now := r.now().UTC()
	sess := &entity.Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	return cloneSession(sess), nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return cloneSession(sess), nil
}

func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	sess.LastSeenAt = at.UTC()

	return nil
}

func (r *sessionRepository) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, sess := range r.sessions {
		if sess.IsExpiredAt(now) {
			delete(r.sessions, id)
			removed++
		}
	}

	return removed, nil
}

func cloneSession(s *entity.Session) *entity.Session {
	cp := *s

	return &cp
}
