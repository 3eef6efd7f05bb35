package context

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// HeaderXRequestID carries the correlation id in and out of the service.
const HeaderXRequestID = "X-Request-Id"

// MaxRequestIDLength caps client-supplied ids before they reach the logs.
const MaxRequestIDLength = 128

type scopeKey struct{}

// requestScope is what the request id middleware hangs off every request.
type requestScope struct {
	requestID string
	logger    *slog.Logger
}

const echoRequestIDKey = "request_id"

// WithScope returns ctx carrying the request id and its request-scoped logger.
// Auth events and store logs pick both up from here.
func WithScope(ctx context.Context, requestID string, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, scopeKey{}, &requestScope{requestID: requestID, logger: logger})
}

func scopeFrom(ctx context.Context) *requestScope {
	scope, _ := ctx.Value(scopeKey{}).(*requestScope)

	return scope
}

// RequestIDFromContext returns the request id, or "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	if scope := scopeFrom(ctx); scope != nil {
		return scope.requestID
	}

	return ""
}

// LoggerOrDefault returns the request-scoped logger, falling back to fallback.
func LoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if scope := scopeFrom(ctx); scope != nil && scope.logger != nil {
		return scope.logger
	}

	return fallback
}

// SetRequestID stores the id on the echo context for response-side middleware.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(echoRequestIDKey, requestID)
}

// RequestID reads the id set by SetRequestID.
func RequestID(c echo.Context) string {
	id, _ := c.Get(echoRequestIDKey).(string)

	return id
}

// ValidRequestID reports whether a client-supplied id is safe to echo and log.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}
