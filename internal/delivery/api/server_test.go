package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"planner/config"
	"planner/internal/auth"
	"planner/internal/delivery/api/router"
	"planner/internal/delivery/api/router/handler"
	deliverycontext "planner/internal/delivery/context"
	domainerrors "planner/internal/domain/errors"
	"planner/internal/domain/service"
	infraauth "planner/internal/infra/auth"
	"planner/internal/infra/metrics"
	"planner/internal/infra/persistence/memory"
	mockService "planner/internal/mocks/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Metrics: &config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	cfg.HTTP.MaxRequestBodySize = "1MB"

	return cfg
}

func newTestEcho(t *testing.T, adapter auth.Adapter) *echo.Echo {
	t.Helper()

	cfg := newTestConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e, err := NewEcho(cfg, logger, adapter, router.RouterParams{
		AuthHandler:  handler.NewAuthHandler(adapter),
		ProbeHandler: handler.NewProbeHandler(adapter),
		Adapter:      adapter,
		Metrics:      metrics.New(),
		Config:       cfg,
	})
	require.NoError(t, err)

	return e
}

func newSessionAdapter(t *testing.T) auth.Adapter {
	t.Helper()

	adapter, err := auth.New(auth.ModeSession, auth.Config{
		Session: &auth.SessionConfig{
			Credentials: memory.NewCredentialRepository(),
			Sessions:    memory.NewSessionRepository(),
			Hasher:      infraauth.NewBcryptHasher(bcrypt.MinCost),
			Secret:      []byte("0123456789abcdef0123456789abcdef"),
		},
	})
	require.NoError(t, err)

	return adapter
}

func serve(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return env
}

func TestServer_SessionModeFlow(t *testing.T) {
	e := newTestEcho(t, newSessionAdapter(t))

	rec := serve(e, http.MethodPost, "/auth/register", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))

	rec = serve(e, http.MethodPost, "/auth/register", `{"username":"alice","password":"another one"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_USERNAME", decode(t, rec).Error.Code)

	rec = serve(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, rec).Error.Code)

	rec = serve(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	rec = serve(e, http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"1","displayName":"alice"}`, string(decode(t, rec).Data))

	rec = serve(e, http.MethodGet, "/api/ping", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"loggedOut":true,"sessionDestroyed":true}`, string(decode(t, rec).Data))

	rec = serve(e, http.MethodGet, "/api/ping", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", decode(t, rec).Error.Code)
}

func TestServer_ValidationErrors(t *testing.T) {
	e := newTestEcho(t, newSessionAdapter(t))

	rec := serve(e, http.MethodPost, "/auth/register", `{"username":"alice","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "password must be at least 8 characters")

	rec = serve(e, http.MethodPost, "/auth/login", `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPost, "/auth/login", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Error.Code)
}

func TestServer_RegisterPasswordOverBcryptLimit(t *testing.T) {
	e := newTestEcho(t, newSessionAdapter(t))

	// 100 characters passes the request validator but not bcrypt.
	body := `{"username":"alice","password":"` + strings.Repeat("a", 100) + `"}`
	rec := serve(e, http.MethodPost, "/auth/register", body)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "72 bytes")
}

func TestServer_TokenModeFlow(t *testing.T) {
	provider := mockService.NewMockIdentityProvider(t)
	adapter, err := auth.New(auth.ModeToken, auth.Config{Token: &auth.TokenConfig{Provider: provider}})
	require.NoError(t, err)
	e := newTestEcho(t, adapter)

	provider.On("Verify", mock.Anything, "good").
		Return(&service.Identity{Subject: "sub-9", Email: "nine@example.com"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"sub-9","displayName":"nine@example.com","email":"nine@example.com"}`, string(decode(t, rec).Data))

	rec = serve(e, http.MethodPost, "/auth/login", `{"username":"alice","password":"whatever"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "DELEGATED_ELSEWHERE", decode(t, rec).Error.Code)

	rec = serve(e, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	e := newTestEcho(t, newSessionAdapter(t))

	rec := serve(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","mode":"session"}`, string(decode(t, rec).Data))

	serve(e, http.MethodGet, "/api/ping", "")

	rec = serve(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewEcho_InstallsAdapterOnce(t *testing.T) {
	adapter := newSessionAdapter(t)
	newTestEcho(t, adapter)

	cfg := newTestConfig()
	_, err := NewEcho(cfg, slog.New(slog.DiscardHandler), adapter, router.RouterParams{
		AuthHandler:  handler.NewAuthHandler(adapter),
		ProbeHandler: handler.NewProbeHandler(adapter),
		Adapter:      adapter,
		Config:       cfg,
	})
	assert.ErrorIs(t, err, auth.ErrAlreadyInstalled)
}

func TestErrorMiddleware_HidesInternalCauses(t *testing.T) {
	adapter := newSessionAdapter(t)
	e := newTestEcho(t, adapter)

	e.GET("/boom", func(echo.Context) error {
		return domainerrors.NewStoreFailure(io.ErrUnexpectedEOF, "session.find")
	})
	e.GET("/unknown", func(echo.Context) error {
		return io.ErrClosedPipe
	})
	e.GET("/canceled", func(echo.Context) error {
		return context.Canceled
	})

	rec := serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "STORE_FAILURE", env.Error.Code)
	assert.NotContains(t, rec.Body.String(), "unexpected EOF")

	rec = serve(e, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rec).Error.Code)
	assert.NotContains(t, rec.Body.String(), "closed pipe")

	rec = serve(e, http.MethodGet, "/canceled", "")
	assert.Equal(t, 499, rec.Code)

	rec = serve(e, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decode(t, rec).Error.Code)
}
