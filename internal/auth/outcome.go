package auth

import (
	domainerrors "planner/internal/domain/errors"
	"planner/internal/errors"
)

// Outcome labels reported to service.AuthMetrics.
const (
	outcomeSuccess      = "success"
	outcomeUnauthorized = "unauthenticated"
	outcomeInvalidToken = "invalid_token"
	outcomeInvalidCreds = "invalid_credentials"
	outcomeDuplicate    = "duplicate"
	outcomeCanceled     = "canceled"
	outcomeError        = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.IsCanceled(err):
		return outcomeCanceled
	case errors.Is(err, domainerrors.ErrAuthenticationRequired):
		return outcomeUnauthorized
	case errors.Is(err, domainerrors.ErrInvalidToken):
		return outcomeInvalidToken
	case errors.Is(err, domainerrors.ErrInvalidCredentials):
		return outcomeInvalidCreds
	case errors.Is(err, domainerrors.ErrDuplicateUsername):
		return outcomeDuplicate
	default:
		return outcomeError
	}
}
