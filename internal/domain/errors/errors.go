package errors

import (
	"net/http"

	"planner/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Registration and login
	ErrDuplicateUsername = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_USERNAME",
		"username is already taken",
		"",
	)

	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords. Callers must return this exact value so the two cases stay
	// indistinguishable.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"invalid username or password",
		"",
	)

	// Request authentication
	ErrAuthenticationRequired = NewBaseError(
		http.StatusUnauthorized,
		"AUTHENTICATION_REQUIRED",
		"authentication required",
		"",
	)

	ErrInvalidToken = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_TOKEN",
		"invalid or expired token",
		"",
	)

	ErrNotAuthenticated = NewBaseError(
		http.StatusUnauthorized,
		"NOT_AUTHENTICATED",
		"no authenticated principal",
		"",
	)

	ErrDelegatedElsewhere = NewBaseError(
		http.StatusNotImplemented,
		"DELEGATED_ELSEWHERE",
		"credentials are managed by the identity provider",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"request validation failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// StoreFailure reports an infrastructure error from the credential or session
// store. The cause is kept for server-side logging only; clients see a generic message.
type StoreFailure struct {
	err       error
	operation string
}

// NewStoreFailure wraps a store error with the operation that failed
func NewStoreFailure(err error, operation string) AppError {
	return &StoreFailure{
		err:       err,
		operation: operation,
	}
}

// Error implements the error interface
func (e *StoreFailure) Error() string {
	return errors.Wrapf(e.err, "store failure: %s", e.operation).Error()
}

// Unwrap exposes the underlying store error
func (e *StoreFailure) Unwrap() error {
	return e.err
}

// Operation returns the store operation that failed
func (e *StoreFailure) Operation() string {
	return e.operation
}

// HTTPCode returns the HTTP status code
func (e *StoreFailure) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *StoreFailure) ErrorCode() string {
	return "STORE_FAILURE"
}

// Message returns the user-friendly error message
func (e *StoreFailure) Message() string {
	return "service temporarily unavailable"
}

// Details never carries store internals to the client
func (e *StoreFailure) Details() string {
	return ""
}
