// Package repository defines the persistence contracts the domain depends on.
package repository

import (
	"context"
	"errors"

	"planner/internal/domain/entity"
)

var (
	// ErrCredentialNotFound is returned when no credential matches the lookup.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrDuplicateUsername is returned by Create when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// CredentialRepository stores username to password-hash records.
type CredentialRepository interface {
	// FindByUsername looks a credential up by exact, case-sensitive username.
	FindByUsername(ctx context.Context, username string) (*entity.Credential, error)

	// FindByID looks a credential up by its user id.
	FindByID(ctx context.Context, id int64) (*entity.Credential, error)

	// Create persists a new credential and assigns its id.
	Create(ctx context.Context, username, passwordHash string) (*entity.Credential, error)

	// UpdatePasswordHash replaces the stored hash, used for hash upgrades.
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
