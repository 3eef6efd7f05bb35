package auth

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"planner/config"
	"planner/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testParams keeps argon2 fast in tests.
var testParams = Argon2Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1}

func TestArgon2idHasher_HashAndVerify(t *testing.T) {
	ctx := context.Background()
	hasher := NewArgon2idHasher(testParams)

	hash, err := hasher.Hash(ctx, "correct-horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := hasher.Verify(ctx, "correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2idHasher_SaltsEveryHash(t *testing.T) {
	ctx := context.Background()
	hasher := NewArgon2idHasher(testParams)

	first, err := hasher.Hash(ctx, "correct-horse")
	require.NoError(t, err)
	second, err := hasher.Hash(ctx, "correct-horse")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2idHasher_EmptyPassword(t *testing.T) {
	_, err := NewArgon2idHasher(testParams).Hash(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestArgon2idHasher_InvalidHash(t *testing.T) {
	hasher := NewArgon2idHasher(testParams)

	tests := []string{
		"",
		"plain",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=300$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=8192,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=65,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdA$a2V5",
	}

	for _, hash := range tests {
		ok, err := hasher.Verify(context.Background(), "pw", hash)
		assert.ErrorIs(t, err, ErrInvalidHash, hash)
		assert.False(t, ok)
	}
}

func TestBcryptHasher_RejectsUnacceptablePasswords(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash(context.Background(), strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, service.ErrPasswordUnacceptable)

	_, err = hasher.Hash(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrPasswordUnacceptable)

	_, err = hasher.Hash(context.Background(), strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestArgon2idHasher_VerifiesLegacyBcrypt(t *testing.T) {
	ctx := context.Background()
	legacy, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	hasher := NewArgon2idHasher(testParams)

	ok, err := hasher.Verify(ctx, "correct-horse", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, hasher.NeedsUpgrade(string(legacy)))
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	ctx := context.Background()
	weak := NewArgon2idHasher(testParams)
	strong := NewArgon2idHasher(Argon2Params{Time: 2, MemoryKiB: 8 * 1024, Threads: 1})

	hash, err := weak.Hash(ctx, "correct-horse")
	require.NoError(t, err)

	assert.False(t, weak.NeedsUpgrade(hash))
	assert.True(t, strong.NeedsUpgrade(hash))
	assert.True(t, weak.NeedsUpgrade("garbage"))
}

func TestBcryptHasher_WithCustomCost(t *testing.T) {
	ctx := context.Background()
	customCost := bcrypt.MinCost // Lower cost for faster testing
	hasher := NewBcryptHasher(customCost)

	hash, err := hasher.Hash(ctx, "correct-horse")
	require.NoError(t, err)

	// Verify the hash uses the correct cost
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, customCost, cost)

	ok, err := hasher.Verify(ctx, "correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, hasher.NeedsUpgrade(hash))
	assert.True(t, NewBcryptHasher(bcrypt.MinCost+1).NeedsUpgrade(hash))
}

func TestBcryptHasher_InvalidHash(t *testing.T) {
	ok, err := NewBcryptHasher(bcrypt.MinCost).Verify(context.Background(), "pw", "invalid_hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
	assert.False(t, ok)
}

func TestBcryptHasher_OutOfRangeCostFallsBack(t *testing.T) {
	hasher := NewBcryptHasher(99).(*bcryptHasher)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)
}

type blockingHasher struct {
	running  atomic.Int32
	peak     atomic.Int32
	release  chan struct{}
	started  chan struct{}
	startOne sync.Once
}

func (h *blockingHasher) Hash(ctx context.Context, _ string) (string, error) {
	cur := h.running.Add(1)
	defer h.running.Add(-1)
	for {
		peak := h.peak.Load()
		if cur <= peak || h.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	h.startOne.Do(func() { close(h.started) })
	<-h.release

	return "hash", nil
}

func (h *blockingHasher) Verify(context.Context, string, string) (bool, error) { return true, nil }
func (h *blockingHasher) NeedsUpgrade(string) bool                           { return false }

func TestLimitedHasher_BoundsConcurrency(t *testing.T) {
	inner := &blockingHasher{release: make(chan struct{}), started: make(chan struct{})}
	hasher := NewLimitedHasher(inner, 2)

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = hasher.Hash(context.Background(), "pw")
		}()
	}

	<-inner.started
	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
}

func TestLimitedHasher_HonoursCancellation(t *testing.T) {
	inner := &blockingHasher{release: make(chan struct{}), started: make(chan struct{})}
	hasher := NewLimitedHasher(inner, 1)

	go func() { _, _ = hasher.Hash(context.Background(), "pw") }()
	<-inner.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)

	close(inner.release)
}

func TestNewPasswordHasher(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{Hasher: &config.HasherConfig{Algorithm: "bcrypt", BcryptCost: bcrypt.MinCost}}}
	hasher, err := NewPasswordHasher(cfg)
	require.NoError(t, err)

	hash, err := hasher.Hash(context.Background(), "correct-horse")
	require.NoError(t, err)
	assert.True(t, isBcryptHash(hash))

	cfg.Auth.Hasher.Algorithm = "md5"
	_, err = NewPasswordHasher(cfg)
	assert.Error(t, err)

	hasher, err = NewPasswordHasher(&config.Config{})
	require.NoError(t, err)
	assert.NotNil(t, hasher)
}
