package identity

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

// oidcProvider verifies ID tokens issued by an OpenID Connect issuer. The
// discovery document is loaded on the first verification.
type oidcProvider struct {
	issuer   string
	clientID string
	client   *http.Client
	upstream *upstreamTracker

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

// NewOIDCProvider uses providerEndpoint (or issuer) as the OIDC issuer URL and
// audience as the expected client id.
func NewOIDCProvider(cfg config.TokenConfig) (service.IdentityProvider, error) {
	issuer := cfg.ProviderEndpoint
	if issuer == "" {
		issuer = cfg.Issuer
	}
	if issuer == "" {
		return nil, errors.New("oidc provider requires an issuer URL")
	}

	upstream := &upstreamTracker{next: http.DefaultTransport}

	return &oidcProvider{
		issuer:   issuer,
		clientID: cfg.Audience,
		client:   &http.Client{Timeout: cfg.Timeout, Transport: upstream},
		upstream: upstream,
	}, nil
}

func (p *oidcProvider) Name() string {
	return ProviderOIDC
}

func (p *oidcProvider) Verify(ctx context.Context, token string) (*service.Identity, error) {
	verifier, err := p.loadVerifier()
	if err != nil {
		return nil, err
	}

	failuresBefore := p.upstream.failures.Load()
	idToken, err := verifier.Verify(oidc.ClientContext(ctx, p.client), token)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, rejected(err)
		}
		// go-oidc flattens key-fetch errors into text, so a failed call to the
		// issuer during this verification is what marks the issuer unavailable.
		if p.upstream.failures.Load() != failuresBefore || ctx.Err() != nil {
			return nil, errors.Wrap(err, "oidc issuer unavailable")
		}

		return nil, rejected(err)
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, rejected(err)
	}

	identity := identityFromClaims(claims)
	identity.Subject = idToken.Subject
	identity.Issuer = idToken.Issuer
	identity.ExpiresAt = idToken.Expiry

	return identity, nil
}

func (p *oidcProvider) loadVerifier() (*oidc.IDTokenVerifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.verifier != nil {
		return p.verifier, nil
	}

	// The provider keeps this context for later key refreshes, so it must
	// outlive any single request.
	provider, err := oidc.NewProvider(oidc.ClientContext(context.Background(), p.client), p.issuer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load oidc discovery document")
	}

	p.verifier = provider.Verifier(&oidc.Config{
		ClientID:          p.clientID,
		SkipClientIDCheck: p.clientID == "",
	})

	return p.verifier, nil
}

// upstreamTracker counts issuer calls that failed in transport or with a
// 5xx/429 status.
type upstreamTracker struct {
	next     http.RoundTripper
	failures atomic.Uint64
}

func (t *upstreamTracker) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		t.failures.Add(1)
	}

	return resp, err
}
