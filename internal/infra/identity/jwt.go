package identity

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtLeeway           = 30 * time.Second
	jwksRefreshInterval = time.Hour
	jwksRefreshLimit    = 5 * time.Minute
)

var (
	asymmetricMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512", "EdDSA"}
	hmacMethods       = []string{"HS256", "HS384", "HS512"}
)

// jwtProvider verifies self-contained JWTs, either with a static key from
// providerKey or with a JWKS document fetched from providerEndpoint.
type jwtProvider struct {
	parser  *jwt.Parser
	key     any
	jwksURL string
	timeout time.Duration

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

// NewJWTProvider builds a JWT verifier. A PEM providerKey is parsed as an
// RSA, ECDSA or Ed25519 public key; any other providerKey is an HMAC secret.
// Without a providerKey the JWKS at providerEndpoint is fetched on first use.
func NewJWTProvider(cfg config.TokenConfig) (service.IdentityProvider, error) {
	p := &jwtProvider{
		jwksURL: cfg.ProviderEndpoint,
		timeout: cfg.Timeout,
	}

	methods := asymmetricMethods
	switch {
	case cfg.ProviderKey != "":
		key, symmetric, err := parseVerificationKey(cfg.ProviderKey)
		if err != nil {
			return nil, err
		}
		p.key = key
		if symmetric {
			methods = hmacMethods
		}
	case cfg.ProviderEndpoint == "":
		return nil, errors.New("jwt provider requires providerKey or a JWKS providerEndpoint")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(jwtLeeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	p.parser = jwt.NewParser(opts...)

	return p, nil
}

func parseVerificationKey(raw string) (key any, symmetric bool, err error) {
	if !strings.Contains(raw, "-----BEGIN") {
		return []byte(raw), true, nil
	}

	pem := []byte(raw)
	if rsaKey, err := jwt.ParseRSAPublicKeyFromPEM(pem); err == nil {
		return rsaKey, false, nil
	}
	if ecKey, err := jwt.ParseECPublicKeyFromPEM(pem); err == nil {
		return ecKey, false, nil
	}
	edKey, err := jwt.ParseEdPublicKeyFromPEM(pem)
	if err != nil {
		return nil, false, errors.New("providerKey is not a supported PEM public key")
	}

	return edKey, false, nil
}

func (p *jwtProvider) Name() string {
	return ProviderJWT
}

func (p *jwtProvider) Verify(ctx context.Context, token string) (*service.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	keyFunc, err := p.keyFunc()
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	if _, err := p.parser.ParseWithClaims(token, claims, keyFunc); err != nil {
		return nil, rejected(err)
	}

	return identityFromClaims(claims), nil
}

func (p *jwtProvider) keyFunc() (jwt.Keyfunc, error) {
	if p.key != nil {
		return func(*jwt.Token) (any, error) { return p.key, nil }, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.jwks == nil {
		jwks, err := keyfunc.Get(p.jwksURL, keyfunc.Options{
			Client:            &http.Client{Timeout: p.timeout},
			RefreshInterval:   jwksRefreshInterval,
			RefreshRateLimit:  jwksRefreshLimit,
			RefreshTimeout:    p.timeout,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch JWKS")
		}
		p.jwks = jwks
	}

	return p.jwks.Keyfunc, nil
}

// Close stops the JWKS background refresh.
func (p *jwtProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.jwks != nil {
		p.jwks.EndBackground()
		p.jwks = nil
	}

	return nil
}
