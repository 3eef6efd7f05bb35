package redis

import (
	"context"
	"encoding/json"
	"time"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"
	"planner/internal/errors"

	goredis "github.com/redis/go-redis/v9"
)

type sessionRecord struct {
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type sessionRepository struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionRepository stores sessions as JSON values whose key TTL matches the
// session's absolute expiry. An empty prefix selects "planner:session:".
func NewSessionRepository(client goredis.UniversalClient, prefix string) repository.SessionRepository {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &sessionRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *sessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *sessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (*entity.Session, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	id, err := entity.NewSessionID()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate session id")
	}

	now := r.now().UTC()
	record := sessionRecord{
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal session")
	}

	ok, err := r.client.SetNX(ctx, r.key(id), data, ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to store session")
	}
	if !ok {
		return nil, errors.New("session id collision")
	}

	return record.toEntity(id), nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	record, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return record.toEntity(id), nil
}

// Touch rewrites the record while keeping the key's remaining TTL.
func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	record, err := r.load(ctx, id)
	if err != nil {
		return err
	}
	record.LastSeenAt = at.UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	err = r.client.SetArgs(ctx, r.key(id), data, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, goredis.Nil) {
		return repository.ErrSessionNotFound
	}

	return errors.Wrap(err, "failed to update session")
}

func (r *sessionRepository) Destroy(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}

	return nil
}

// DeleteExpired is a no-op: Redis expires keys itself.
func (r *sessionRepository) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

func (r *sessionRepository) load(ctx context.Context, id string) (*sessionRecord, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}

	var record sessionRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}

	return &record, nil
}

func (s *sessionRecord) toEntity(id string) *entity.Session {
	return &entity.Session{
		ID:         id,
		UserID:     s.UserID,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
		LastSeenAt: s.LastSeenAt,
	}
}
