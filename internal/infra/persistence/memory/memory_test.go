package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"planner/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRepository_CreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	alice, err := repo.Create(ctx, "alice", "hash-a")
	require.NoError(t, err)
	bob, err := repo.Create(ctx, "bob", "hash-b")
	require.NoError(t, err)

	assert.Equal(t, int64(1), alice.ID)
	assert.Equal(t, int64(2), bob.ID)
}

func TestCredentialRepository_DuplicateIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	_, err := repo.Create(ctx, "alice", "hash")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "alice", "other")
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)

	_, err = repo.Create(ctx, "Alice", "other")
	assert.NoError(t, err)
}

func TestCredentialRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	created, err := repo.Create(ctx, "alice", "hash")
	require.NoError(t, err)

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
}

func TestCredentialRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	created, err := repo.Create(ctx, "alice", "hash")
	require.NoError(t, err)
	created.PasswordHash = "tampered"

	stored, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", stored.PasswordHash)
}

func TestCredentialRepository_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	created, err := repo.Create(ctx, "alice", "old")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePasswordHash(ctx, created.ID, "new"))
	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, 99, "x"), repository.ErrCredentialNotFound)
}

func TestCredentialRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, fmt.Sprintf("user-%d", i%10), "hash")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var dup int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
			dup++
		}
	}
	assert.Equal(t, 10, dup)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newSessionRepository(func() time.Time { return now })

	sess, err := repo.Create(ctx, 7, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
	assert.Equal(t, now, sess.LastSeenAt)

	later := now.Add(10 * time.Minute)
	require.NoError(t, repo.Touch(ctx, sess.ID, later))

	found, err := repo.FindByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, later, found.LastSeenAt)

	require.NoError(t, repo.Destroy(ctx, sess.ID))
	_, err = repo.FindByID(ctx, sess.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	assert.NoError(t, repo.Destroy(ctx, sess.ID))
	assert.ErrorIs(t, repo.Touch(ctx, sess.ID, later), repository.ErrSessionNotFound)
}

func TestSessionRepository_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	seen := make(map[string]struct{})
	for range 50 {
		sess, err := repo.Create(ctx, 1, time.Hour)
		require.NoError(t, err)
		_, dup := seen[sess.ID]
		require.False(t, dup)
		seen[sess.ID] = struct{}{}
	}
}

func TestSessionRepository_RejectsNonPositiveTTL(t *testing.T) {
	_, err := NewSessionRepository().Create(context.Background(), 1, 0)
	assert.Error(t, err)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newSessionRepository(func() time.Time { return now })

	short, err := repo.Create(ctx, 1, time.Minute)
	require.NoError(t, err)
	long, err := repo.Create(ctx, 2, time.Hour)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)

	removed, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, short.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = repo.FindByID(ctx, long.ID)
	assert.NoError(t, err)
}

func TestRepositories_HonourCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCredentialRepository().FindByUsername(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewSessionRepository().FindByID(ctx, "id")
	assert.ErrorIs(t, err, context.Canceled)
}
