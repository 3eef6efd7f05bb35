// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"planner/internal/domain/service"
	"planner/internal/errors"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix  = "$argon2id$"
	argon2SaltLen = 16 // salt length in bytes
	argon2KeyLen  = 32 // output length in bytes

	// Upper bounds accepted from a stored hash. argon2.IDKey panics on t=0 and
	// allocates m KiB per call, so a corrupted row must not reach it unchecked.
	maxArgon2Time      uint32 = 64
	maxArgon2MemoryKiB uint32 = 1 << 20 // 1 GiB

	// OWASP-recommended defaults
	DefaultArgon2Time      uint32 = 1
	DefaultArgon2MemoryKiB uint32 = 64 * 1024
	DefaultArgon2Threads   uint8  = 4
)

var (
	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = fmt.Errorf("%w: password cannot be empty", service.ErrPasswordUnacceptable)

	// ErrPasswordTooLong is returned by the bcrypt hasher for input it would truncate.
	ErrPasswordTooLong = fmt.Errorf("%w: password exceeds %d bytes", service.ErrPasswordUnacceptable, bcryptMaxPasswordBytes)

	// ErrInvalidHash is returned when a stored hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
)

// Argon2Params are the cost parameters encoded into every argon2id hash.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

func (p Argon2Params) withDefaults() Argon2Params {
	if p.Time == 0 {
		p.Time = DefaultArgon2Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultArgon2MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Threads
	}
	// Keep configured costs verifiable by decodeArgon2Hash.
	p.Time = min(p.Time, maxArgon2Time)
	p.MemoryKiB = min(p.MemoryKiB, maxArgon2MemoryKiB)

	return p
}

// argon2idHasher hashes with argon2id and still verifies legacy bcrypt hashes,
// reporting them through NeedsUpgrade.
type argon2idHasher struct {
	params Argon2Params
	legacy *bcryptHasher
}

// NewArgon2idHasher returns an argon2id service.PasswordHasher; zero params fall back to defaults.
func NewArgon2idHasher(params Argon2Params) service.PasswordHasher {
	return &argon2idHasher{
		params: params.withDefaults(),
		legacy: &bcryptHasher{cost: DefaultBcryptCost},
	}
}

// Hash produces a PHC-formatted argon2id hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *argon2idHasher) Hash(_ context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks the password against an argon2id or legacy bcrypt hash in constant time.
func (h *argon2idHasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	if isBcryptHash(encodedHash) {
		return h.legacy.Verify(ctx, password, encodedHash)
	}

	decoded, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), decoded.salt, decoded.params.Time, decoded.params.MemoryKiB, decoded.params.Threads, uint32(len(decoded.key)))

	return subtle.ConstantTimeCompare(computed, decoded.key) == 1, nil
}

// NeedsUpgrade reports true for non-argon2id hashes and for argon2id hashes
// produced with different cost parameters.
func (h *argon2idHasher) NeedsUpgrade(encodedHash string) bool {
	if !isArgon2Hash(encodedHash) {
		return true
	}

	decoded, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return true
	}

	return decoded.params != h.params
}

type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func decodeArgon2Hash(encodedHash string) (*argon2Hash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, errors.Wrap(ErrInvalidHash, "unsupported hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, errors.Wrap(ErrInvalidHash, err.Error())
	}
	if version != argon2.Version {
		return nil, errors.Wrapf(ErrInvalidHash, "unsupported argon2 version %d", version)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, errors.Wrap(ErrInvalidHash, err.Error())
	}
	if iterations == 0 || iterations > maxArgon2Time {
		return nil, errors.Wrapf(ErrInvalidHash, "iterations value %d out of range", iterations)
	}
	if memory == 0 || memory > maxArgon2MemoryKiB {
		return nil, errors.Wrapf(ErrInvalidHash, "memory value %d KiB out of range", memory)
	}
	// Validate threads fits in uint8 to prevent silent truncation
	if threads == 0 || threads > 255 {
		return nil, errors.Wrapf(ErrInvalidHash, "threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidHash, err.Error())
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidHash, err.Error())
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, errors.Wrapf(ErrInvalidHash, "invalid key length %d", len(key))
	}

	return &argon2Hash{
		params: Argon2Params{Time: iterations, MemoryKiB: memory, Threads: uint8(threads)},
		salt:   salt,
		key:    key,
	}, nil
}

func isArgon2Hash(hash string) bool {
	return strings.HasPrefix(hash, argon2Prefix)
}
