package identity

import (
	"context"
	"net"
	"net/url"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// googleProvider verifies Google-signed ID tokens for a fixed audience.
type googleProvider struct {
	audience string
	validate validateFunc
}

// NewGoogleProvider verifies tokens with idtoken.Validate against cfg.Audience.
func NewGoogleProvider(cfg config.TokenConfig) (service.IdentityProvider, error) {
	if cfg.Audience == "" {
		return nil, errors.New("google provider requires an audience")
	}

	return &googleProvider{
		audience: cfg.Audience,
		validate: idtoken.Validate,
	}, nil
}

func (p *googleProvider) Name() string {
	return ProviderGoogle
}

func (p *googleProvider) Verify(ctx context.Context, token string) (*service.Identity, error) {
	payload, err := p.validate(ctx, token, p.audience)
	if err != nil {
		if isNetworkError(err) || ctx.Err() != nil {
			return nil, errors.Wrap(err, "google token validation unavailable")
		}

		return nil, rejected(err)
	}

	claims := payload.Claims
	if claims == nil {
		claims = map[string]any{}
	}

	identity := identityFromClaims(claims)
	identity.Subject = payload.Subject
	identity.Issuer = payload.Issuer
	if payload.Expires > 0 {
		identity.ExpiresAt = unixTime(payload.Expires)
	}

	return identity, nil
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error

	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}
