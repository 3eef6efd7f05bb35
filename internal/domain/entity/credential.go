package entity

import (
	"strconv"
	"time"
)

// Credential is a locally stored username/password-hash pair.
// It never leaves the session adapter; callers only see the derived Principal.
type Credential struct {
	ID           int64     // Sequential user id assigned by the credential store.
	Username     string    // Case-sensitive login name, unique within the store.
	PasswordHash string    // Encoded hash including algorithm parameters and salt.
	CreatedAt    time.Time // Timestamp of registration.
	UpdatedAt    time.Time // Timestamp of the last hash rotation.
}

// Principal projects the credential into the uniform identity shape,
// stripping all password material.
func (c *Credential) Principal() *Principal {
	return &Principal{
		ID:          strconv.FormatInt(c.ID, 10),
		DisplayName: c.Username,
	}
}
