package middleware

import (
	"log/slog"
	"net/http"

	"planner/internal/delivery/api/response"
	deliverycontext "planner/internal/delivery/context"
	domainerrors "planner/internal/domain/errors"
	"planner/internal/errors"

	"github.com/labstack/echo/v4"
)

// StatusClientClosedRequest is reported when the client went away before a
// response was produced. Nothing is normally written for it.
const StatusClientClosedRequest = 499

// ErrorMiddleware handles errors in the HTTP pipeline
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := deliverycontext.LoggerOrDefault(c.Request().Context(), m.logger)

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		// The cause of a 5xx is only ever logged, never rendered.
		if domainerrors.IsServerError(appErr) {
			logger.Error("Request failed",
				slog.String("code", appErr.ErrorCode()),
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
		_ = response.AppError(c, appErr)

		return
	}

	if errors.IsCanceled(err) {
		logger.Debug("Request ended before completion", slog.Any("error", err))
		_ = response.Error(c, StatusClientClosedRequest, "REQUEST_CANCELED", "request canceled", nil)

		return
	}

	// Check if it is an Echo HTTPError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}

		_ = response.Error(c, httpErr.Code, "HTTP_ERROR", message, nil)

		return
	}

	// Default to internal error, log the error but return a generic message (do not expose internal details)
	logger.Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	_ = response.InternalServerError(c, domainerrors.ErrInternalError.ErrorCode(), "Internal server error, please try again later")
}
