package handler

import (
	"net/http"

	"planner/internal/auth"
	"planner/internal/delivery/api/response"

	"github.com/labstack/echo/v4"
)

// ProbeHandler serves the liveness endpoint and a guarded ping used to check
// that authentication works end to end.
type ProbeHandler struct {
	adapter auth.Adapter
}

// NewProbeHandler creates a new ProbeHandler instance
func NewProbeHandler(adapter auth.Adapter) *ProbeHandler {
	return &ProbeHandler{adapter: adapter}
}

// Health reports that the process is serving requests.
func (h *ProbeHandler) Health(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   h.adapter.Mode().String(),
	})
}

// Ping requires an authenticated principal and echoes it back.
func (h *ProbeHandler) Ping(c echo.Context) error {
	principal, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return response.Unauthorized(c, "NOT_AUTHENTICATED", "no authenticated principal")
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"message":   "pong",
		"principal": principal,
	})
}
