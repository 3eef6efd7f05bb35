package service

import (
	"context"
	"errors"
	"time"
)

// ErrTokenRejected marks a verification failure where the provider answered and
// refused the token (bad signature, expired, inactive). Errors without this marker
// mean the provider could not be reached or answered unexpectedly.
var ErrTokenRejected = errors.New("token rejected by identity provider")

// Identity is the provider-side view of a verified bearer token.
type Identity struct {
	Subject           string         // Provider-scoped unique user identifier (sub)
	Email             string         // Email claim, if present
	Name              string         // Display-name claim, if present
	PreferredUsername string         // preferred_username or equivalent, if present
	Issuer            string         // Token issuer
	ExpiresAt         time.Time      // Token expiry, zero when unknown
	Claims            map[string]any // Remaining raw claims
}

// IdentityProvider verifies bearer tokens against an external identity provider.
// Timeouts and retries belong to the implementation; callers make one call per request.
type IdentityProvider interface {
	// Name returns the provider identifier used in logs and metrics.
	Name() string

	// Verify checks the token and returns the identity it represents.
	Verify(ctx context.Context, token string) (*Identity, error)
}
