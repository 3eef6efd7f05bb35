package identity

import (
	"context"

	"planner/config"
	"planner/internal/domain/service"
	"planner/internal/errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type firebaseVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// firebaseProvider verifies Firebase Authentication ID tokens.
type firebaseProvider struct {
	client firebaseVerifier
}

// NewFirebaseProvider initialises a Firebase app for cfg.ProjectID. When
// cfg.CredentialsFile is empty, application default credentials are used.
func NewFirebaseProvider(ctx context.Context, cfg config.TokenConfig) (service.IdentityProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get Firebase auth client")
	}

	return &firebaseProvider{client: client}, nil
}

func (p *firebaseProvider) Name() string {
	return ProviderFirebase
}

func (p *firebaseProvider) Verify(ctx context.Context, token string) (*service.Identity, error) {
	verified, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		if isFirebaseRejection(err) {
			return nil, rejected(err)
		}

		return nil, errors.Wrap(err, "firebase token verification failed")
	}

	claims := verified.Claims
	if claims == nil {
		claims = map[string]any{}
	}

	identity := identityFromClaims(claims)
	identity.Subject = verified.UID
	identity.Issuer = verified.Issuer
	identity.ExpiresAt = unixTime(verified.Expires)

	return identity, nil
}

func isFirebaseRejection(err error) bool {
	return auth.IsIDTokenInvalid(err) ||
		auth.IsIDTokenExpired(err) ||
		auth.IsIDTokenRevoked(err) ||
		auth.IsUserDisabled(err)
}
