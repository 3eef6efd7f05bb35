package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"github.com/sethvargo/go-retry"
)

const (
	introspectionBackoffBase = 50 * time.Millisecond
	maxIntrospectionBody     = 1 << 20
)

var errInactiveToken = errors.New("token is not active")

// introspectionProvider validates opaque tokens against an RFC 7662 endpoint.
// Transport failures and 5xx/429 answers are retried; an inactive token is not.
type introspectionProvider struct {
	endpoint   string
	key        string
	maxRetries uint64
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewIntrospectionProvider posts each token to cfg.ProviderEndpoint using
// cfg.ProviderKey as the caller's bearer credential.
func NewIntrospectionProvider(cfg config.TokenConfig, logger *slog.Logger) (service.IdentityProvider, error) {
	if cfg.ProviderEndpoint == "" {
		return nil, errors.New("introspection provider requires providerEndpoint")
	}
	if _, err := url.ParseRequestURI(cfg.ProviderEndpoint); err != nil {
		return nil, errors.Wrap(err, "invalid introspection endpoint")
	}

	return &introspectionProvider{
		endpoint:   cfg.ProviderEndpoint,
		key:        cfg.ProviderKey,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (p *introspectionProvider) Name() string {
	return ProviderIntrospection
}

func (p *introspectionProvider) Verify(ctx context.Context, token string) (*service.Identity, error) {
	var claims map[string]any

	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(introspectionBackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		claims, err = p.introspect(ctx, token)

		return err
	})
	if err != nil {
		return nil, err
	}

	identity := identityFromClaims(claims)
	if !identity.ExpiresAt.IsZero() && !p.now().Before(identity.ExpiresAt) {
		return nil, rejected(errors.New("token expired"))
	}

	return identity, nil
}

func (p *introspectionProvider) introspect(ctx context.Context, token string) (map[string]any, error) {
	form := url.Values{
		"token":           {token},
		"token_type_hint": {"access_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if p.key != "" {
		req.Header.Set("Authorization", "Bearer "+p.key)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.WithStack(err)
		}
		p.logger.DebugContext(ctx, "Introspection request failed, retrying", slog.Any("error", err))

		return nil, retry.RetryableError(errors.Wrap(err, "introspection request failed"))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxIntrospectionBody))

		return nil, retry.RetryableError(errors.Errorf("introspection endpoint returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("introspection endpoint returned %d", resp.StatusCode)
	}

	var claims map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIntrospectionBody)).Decode(&claims); err != nil {
		return nil, errors.Wrap(err, "failed to decode introspection response")
	}

	if active, _ := claims["active"].(bool); !active {
		return nil, rejected(errInactiveToken)
	}

	return claims, nil
}
