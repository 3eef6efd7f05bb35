package errors

import "net/http"

// IsServerError reports whether the error should be treated as an internal failure
// whose details stay in server logs.
func IsServerError(err AppError) bool {
	return err.HTTPCode() >= http.StatusInternalServerError && err.HTTPCode() != http.StatusNotImplemented
}
