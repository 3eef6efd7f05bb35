package auth

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	domainerrors "planner/internal/domain/errors"
	"planner/internal/domain/service"
	"planner/internal/errors"
	mockService "planner/internal/mocks/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTokenFixture(t *testing.T) (Adapter, *mockService.MockIdentityProvider, *recordingMetrics) {
	t.Helper()

	provider := mockService.NewMockIdentityProvider(t)
	metrics := &recordingMetrics{}

	adapter, err := New(ModeToken, Config{
		Token:   &TokenConfig{Provider: provider},
		Metrics: metrics,
	})
	require.NoError(t, err)

	return adapter, provider, metrics
}

func bearerRequest(header string) *http.Request {
	req := requestWithCookies(http.MethodGet, "/me")
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}

	return req
}

func TestTokenAdapter_Guard(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		setup       func(p *mockService.MockIdentityProvider)
		wantStatus  int
		wantCode    string
		wantName    string
		wantOutcome string
	}{
		{
			name:        "missing header",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "AUTHENTICATION_REQUIRED",
			wantOutcome: "token:unauthenticated",
		},
		{
			name:        "wrong scheme",
			header:      "Basic YWxpY2U6cHc=",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "AUTHENTICATION_REQUIRED",
			wantOutcome: "token:unauthenticated",
		},
		{
			name:        "empty token",
			header:      "Bearer   ",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "AUTHENTICATION_REQUIRED",
			wantOutcome: "token:unauthenticated",
		},
		{
			name:   "rejected token",
			header: "Bearer expired",
			setup: func(p *mockService.MockIdentityProvider) {
				p.On("Verify", mock.Anything, "expired").
					Return(nil, fmt.Errorf("%w: token expired", service.ErrTokenRejected)).Once()
			},
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "INVALID_TOKEN",
			wantOutcome: "token:invalid_token",
		},
		{
			name:   "provider unavailable",
			header: "Bearer abc",
			setup: func(p *mockService.MockIdentityProvider) {
				p.On("Verify", mock.Anything, "abc").Return(nil, errors.New("dial tcp: connection refused")).Once()
			},
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "INVALID_TOKEN",
			wantOutcome: "token:invalid_token",
		},
		{
			name:   "identity without subject",
			header: "Bearer abc",
			setup: func(p *mockService.MockIdentityProvider) {
				p.On("Verify", mock.Anything, "abc").Return(&service.Identity{Name: "ghost"}, nil).Once()
			},
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "INVALID_TOKEN",
			wantOutcome: "token:invalid_token",
		},
		{
			name:   "lowercase scheme",
			header: "bearer  tok-1 ",
			setup: func(p *mockService.MockIdentityProvider) {
				p.On("Verify", mock.Anything, "tok-1").
					Return(&service.Identity{Subject: "sub-1", Name: "Alice"}, nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantName:    "Alice",
			wantOutcome: "token:success",
		},
		{
			name:   "display name falls back to preferred username",
			header: "Bearer tok-2",
			setup: func(p *mockService.MockIdentityProvider) {
				p.On("Verify", mock.Anything, "tok-2").
					Return(&service.Identity{Subject: "sub-2", PreferredUsername: "bob", Email: "bob@example.com"}, nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantName:    "bob",
			wantOutcome: "token:success",
		},
		{
			name:   "display name falls back to subject",
			header: "Bearer tok-3",
			setup: func(p *mockService.MockIdentityProvider) {
				p.On("Verify", mock.Anything, "tok-3").Return(&service.Identity{Subject: "sub-3"}, nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantName:    "sub-3",
			wantOutcome: "token:success",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, provider, metrics := newTokenFixture(t)
			if tt.setup != nil {
				tt.setup(provider)
			}
			h := newHarness(t, adapter)

			rec := h.do(bearerRequest(tt.header))

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, []string{tt.wantOutcome}, metrics.guard)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, tt.wantCode, decodeCode(t, rec.Body.Bytes()))
				assert.Zero(t, h.guardedHits)

				return
			}
			assert.Equal(t, tt.wantName, decodePrincipal(t, rec.Body.Bytes()).DisplayName)
		})
	}
}

func TestTokenAdapter_IgnoresSessionCookie(t *testing.T) {
	adapter, _, _ := newTokenFixture(t)
	h := newHarness(t, adapter)

	cookie := &http.Cookie{Name: DefaultCookieName, Value: cookieCodec{secret: testSecret}.encode("sess-1")}
	rec := h.do(requestWithCookies(http.MethodGet, "/me", cookie))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", decodeCode(t, rec.Body.Bytes()))
}

func TestTokenAdapter_CanceledRequestAttachesNothing(t *testing.T) {
	adapter, provider, metrics := newTokenFixture(t)
	h := newHarness(t, adapter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider.On("Verify", mock.Anything, "tok").
		Run(func(mock.Arguments) { cancel() }).
		Return(&service.Identity{Subject: "sub"}, nil).Once()

	rec := h.do(bearerRequest("Bearer tok").WithContext(ctx))

	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.Zero(t, h.guardedHits)
	assert.Equal(t, []string{"token:canceled"}, metrics.guard)
}

func TestTokenAdapter_CredentialOperationsAreDelegated(t *testing.T) {
	adapter, _, _ := newTokenFixture(t)
	h := newHarness(t, adapter)

	_, err := adapter.Register(context.Background(), "alice", "password")
	assert.ErrorIs(t, err, domainerrors.ErrDelegatedElsewhere)

	rec := h.do(loginRequest("alice", "password"))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "DELEGATED_ELSEWHERE", decodeCode(t, rec.Body.Bytes()))
	assert.Nil(t, findCookie(rec, DefaultCookieName))

	rec = h.do(requestWithCookies(http.MethodPost, "/logout"))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestTokenAdapter_InstallIsNoop(t *testing.T) {
	adapter, _, _ := newTokenFixture(t)
	e := echo.New()

	require.NoError(t, adapter.Install(e))
	require.NoError(t, adapter.Install(e))
	assert.Equal(t, ModeToken, adapter.Mode())
}

func TestTokenAdapter_CurrentPrincipalWithoutGuard(t *testing.T) {
	adapter, _, _ := newTokenFixture(t)
	c := echo.New().NewContext(requestWithCookies(http.MethodGet, "/"), nil)

	_, err := adapter.CurrentPrincipal(c)
	assert.ErrorIs(t, err, domainerrors.ErrNotAuthenticated)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":     {"abc", true},
		"BEARER abc":     {"abc", true},
		"  Bearer  abc ": {"abc", true},
		"Bearer":         {"", false},
		"Bearer ":        {"", false},
		"Token abc":      {"", false},
		"":               {"", false},
	}

	for header, want := range tests {
		token, ok := bearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, token, header)
	}
}
