// Package memory provides in-process implementations of the repository interfaces.
// They back single-instance deployments and tests; state is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"
)

type credentialRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*entity.Credential
	byUsername map[string]int64
	now        func() time.Time
}

// NewCredentialRepository returns an empty store whose ids start at 1.
func NewCredentialRepository() repository.CredentialRepository {
	return &credentialRepository{
		byID:       make(map[int64]*entity.Credential),
		byUsername: make(map[string]int64),
		now:        time.Now,
	}
}

func (r *credentialRepository) FindByUsername(ctx context.Context, username string) (*entity.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}

	return cloneCredential(r.byID[id]), nil
}

func (r *credentialRepository) FindByID(ctx context.Context, id int64) (*entity.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrCredentialNotFound
	}

	return cloneCredential(cred), nil
}

func (r *credentialRepository) Create(ctx context.Context, username, passwordHash string) (*entity.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[username]; exists {
		return nil, repository.ErrDuplicateUsername
	}

	r.nextID++
	now := r.now().UTC()
	cred := &entity.Credential{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[cred.ID] = cred
	r.byUsername[username] = cred.ID

	return cloneCredential(cred), nil
}

func (r *credentialRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.byID[id]
	if !ok {
		return repository.ErrCredentialNotFound
	}
	cred.PasswordHash = passwordHash
	cred.UpdatedAt = r.now().UTC()

	return nil
}

func cloneCredential(c *entity.Credential) *entity.Credential {
	cp := *c

	return &cp
}
