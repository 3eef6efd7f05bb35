package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"planner/config"
	"planner/internal/auth"
	deliverycontext "planner/internal/delivery/context"
	domainerrors "planner/internal/domain/errors"
	"planner/internal/errors"

	"github.com/labstack/echo/v4"
)

// LoggerMiddleware writes one access line per request. With debug off only
// failed requests (4xx and 5xx) are logged, so rejected logins and guard
// denials stay visible in production without logging every probe.
type LoggerMiddleware struct {
	logger *slog.Logger
	debug  bool
}

func NewLoggerMiddleware(logger *slog.Logger, config *config.Config) *LoggerMiddleware {
	return &LoggerMiddleware{
		logger: logger,
		debug:  config.Env.Debug,
	}
}

func (m *LoggerMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		m.logRequest(c, start, err)

		return err
	}
}

func (m *LoggerMiddleware) logRequest(c echo.Context, start time.Time, err error) {
	req := c.Request()
	status := c.Response().Status
	if err != nil && !c.Response().Committed {
		// The error handler has not rendered yet; report what it will send.
		status = statusOf(err)
	}

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	case !m.debug:
		return
	}

	attrs := []slog.Attr{
		slog.String("request_id", deliverycontext.RequestID(c)),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", status),
		slog.Duration("latency", time.Since(start)),
		slog.String("remote_ip", c.RealIP()),
	}
	if m.debug {
		attrs = append(attrs, slog.String("user_agent", req.UserAgent()))
	}
	// The guard swaps in a request whose context carries the principal.
	if principal, ok := auth.PrincipalFromContext(req.Context()); ok {
		attrs = append(attrs, slog.String("principal_id", principal.ID))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	m.logger.LogAttrs(req.Context(), level, "HTTP Request", attrs...)
}

// statusOf mirrors the status mapping of the API error handler.
func statusOf(err error) int {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}
	if errors.IsCanceled(err) {
		return 499
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
