// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"

	"planner/internal/auth"
	"planner/internal/delivery/api/response"
	"planner/internal/errors"

	"github.com/labstack/echo/v4"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

// LogoutResponse reports what logout did on the server side.
type LogoutResponse struct {
	LoggedOut        bool `json:"loggedOut"`
	SessionDestroyed bool `json:"sessionDestroyed"`
}

// AuthHandler exposes the adapter's credential operations over HTTP.
type AuthHandler struct {
	adapter auth.Adapter
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(adapter auth.Adapter) *AuthHandler {
	return &AuthHandler{adapter: adapter}
}

// Register handles the registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var input RegisterRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	principal, err := h.adapter.Register(c.Request().Context(), input.Username, input.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, principal)
}

// Login handles the login request. In session mode the session cookie is set on success.
func (h *AuthHandler) Login(c echo.Context) error {
	var input LoginRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	principal, err := h.adapter.Login(c, input.Username, input.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, principal)
}

// Logout ends the caller's session. A store failure while destroying the
// session still logs the client out; the adapter has already logged it.
func (h *AuthHandler) Logout(c echo.Context) error {
	result, err := h.adapter.Logout(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, LogoutResponse{
		LoggedOut:        true,
		SessionDestroyed: result.Destroyed,
	})
}

// Me returns the principal attached by the guard.
func (h *AuthHandler) Me(c echo.Context) error {
	principal, err := h.adapter.CurrentPrincipal(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, principal)
}
