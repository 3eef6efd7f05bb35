// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import (
	"context"

	"planner/internal/errors"
)

// ErrPasswordUnacceptable marks a password the configured hasher cannot
// accept (empty, or longer than bcrypt's 72-byte input limit). It is a
// caller mistake, not an infrastructure failure.
var ErrPasswordUnacceptable = errors.New("password unacceptable")

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (argon2id or bcrypt), keeping the domain pure.
// The cost parameters come from configuration, never from the caller.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify compares a plaintext password with a hash in constant time.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error for an unreadable hash.
	Verify(ctx context.Context, password, hash string) (bool, error)

	// NeedsUpgrade reports whether the hash was produced by an older algorithm or weaker parameters.
	NeedsUpgrade(hash string) bool
}
