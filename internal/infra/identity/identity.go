// Package identity contains the identity provider clients used by token mode.
// Each client reports refused tokens by wrapping service.ErrTokenRejected;
// every other error means the provider could not give an answer.
package identity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"go.uber.org/fx"
)

const (
	ProviderIntrospection = "introspection"
	ProviderJWT           = "jwt"
	ProviderOIDC          = "oidc"
	ProviderGoogle        = "google"
	ProviderFirebase      = "firebase"

	defaultTimeout = 5 * time.Second
)

// Params defines the dependencies for New, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New builds the configured identity provider and registers its cleanup.
func New(params Params) (service.IdentityProvider, error) {
	if params.Config.Auth == nil || params.Config.Auth.Token == nil {
		return nil, errors.New("auth.token configuration is required in token mode")
	}

	provider, err := NewFromConfig(params.Ctx, *params.Config.Auth.Token, params.Logger)
	if err != nil {
		return nil, err
	}

	if closer, ok := provider.(io.Closer); ok {
		params.Lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return closer.Close()
			},
		})
	}

	return provider, nil
}

// NewFromConfig selects the provider client named by cfg.Provider.
func NewFromConfig(ctx context.Context, cfg config.TokenConfig, logger *slog.Logger) (service.IdentityProvider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderIntrospection:
		return NewIntrospectionProvider(cfg, logger)
	case ProviderJWT:
		return NewJWTProvider(cfg)
	case ProviderOIDC:
		return NewOIDCProvider(cfg)
	case ProviderGoogle:
		return NewGoogleProvider(cfg)
	case ProviderFirebase:
		return NewFirebaseProvider(ctx, cfg)
	default:
		return nil, errors.Errorf("unknown identity provider: %q", cfg.Provider)
	}
}

// rejected marks err as a definitive refusal of the token.
func rejected(err error) error {
	return fmt.Errorf("%w: %w", service.ErrTokenRejected, err)
}

// identityFromClaims maps standard OIDC claim names onto service.Identity.
func identityFromClaims(claims map[string]any) *service.Identity {
	identity := &service.Identity{
		Subject:           stringClaim(claims, "sub"),
		Email:             stringClaim(claims, "email"),
		Name:              stringClaim(claims, "name"),
		PreferredUsername: stringClaim(claims, "preferred_username"),
		Issuer:            stringClaim(claims, "iss"),
		Claims:            claims,
	}
	if identity.PreferredUsername == "" {
		identity.PreferredUsername = stringClaim(claims, "username")
	}
	if exp, ok := numericClaim(claims, "exp"); ok {
		identity.ExpiresAt = unixTime(exp)
	}

	return identity
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)

	return s
}

func numericClaim(claims map[string]any, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
