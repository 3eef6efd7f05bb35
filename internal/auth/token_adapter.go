package auth

import (
	"context"
	"log/slog"
	"strings"

	"planner/internal/domain/entity"
	domainerrors "planner/internal/domain/errors"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"github.com/labstack/echo/v4"
)

const bearerScheme = "Bearer"

type tokenAdapter struct {
	shared

	provider service.IdentityProvider
}

func newTokenAdapter(cfg TokenConfig, deps shared) (*tokenAdapter, error) {
	if cfg.Provider == nil {
		return nil, errors.New("auth: token mode requires an identity provider")
	}

	return &tokenAdapter{
		shared:   deps,
		provider: cfg.Provider,
	}, nil
}

func (a *tokenAdapter) sealed() {}

func (a *tokenAdapter) Mode() Mode {
	return ModeToken
}

// Install is a no-op: every request is verified independently.
func (a *tokenAdapter) Install(*echo.Echo) error {
	return nil
}

func (a *tokenAdapter) Guard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := a.authenticate(c)
			a.metrics.ObserveGuard(ModeToken.String(), outcomeOf(err))
			if err != nil {
				return err
			}

			attachPrincipal(c, principal)

			return next(c)
		}
	}
}

func (a *tokenAdapter) authenticate(c echo.Context) (*entity.Principal, error) {
	token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, domainerrors.ErrAuthenticationRequired
	}

	ctx := c.Request().Context()
	identity, err := a.provider.Verify(ctx, token)
	if doneErr := a.discardIfDone(ctx, "token verification"); doneErr != nil {
		return nil, doneErr
	}
	if err != nil {
		a.logVerifyFailure(ctx, err)

		return nil, domainerrors.ErrInvalidToken
	}
	if identity == nil || identity.Subject == "" {
		a.requestLogger(ctx).Warn("Identity provider accepted token without subject",
			slog.String("provider", a.provider.Name()),
		)

		return nil, domainerrors.ErrInvalidToken
	}

	return principalFromIdentity(identity), nil
}

// logVerifyFailure separates rejected tokens from provider outages in the logs.
// Clients see ErrInvalidToken in both cases.
func (a *tokenAdapter) logVerifyFailure(ctx context.Context, err error) {
	logger := a.requestLogger(ctx).With(slog.String("provider", a.provider.Name()))
	if errors.Is(err, service.ErrTokenRejected) {
		logger.Info("Token rejected", slog.Any("error", err))

		return
	}

	logger.Error("Identity provider unavailable", slog.Any("error", err))
}

// bearerToken extracts the credential of a "Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func principalFromIdentity(identity *service.Identity) *entity.Principal {
	displayName := identity.Subject
	for _, candidate := range []string{identity.Name, identity.PreferredUsername, identity.Email} {
		if candidate != "" {
			displayName = candidate

			break
		}
	}

	return &entity.Principal{
		ID:          identity.Subject,
		DisplayName: displayName,
		Email:       identity.Email,
	}
}

// Register is delegated to the identity provider.
func (a *tokenAdapter) Register(context.Context, string, string) (*entity.Principal, error) {
	a.metrics.ObserveCredentialOp("register", "delegated")

	return nil, domainerrors.ErrDelegatedElsewhere
}

// Login is delegated to the identity provider.
func (a *tokenAdapter) Login(echo.Context, string, string) (*entity.Principal, error) {
	a.metrics.ObserveCredentialOp("login", "delegated")

	return nil, domainerrors.ErrDelegatedElsewhere
}

// Logout is delegated to the identity provider; there is no server-side state to clear.
func (a *tokenAdapter) Logout(echo.Context) (*LogoutResult, error) {
	a.metrics.ObserveCredentialOp("logout", "delegated")

	return nil, domainerrors.ErrDelegatedElsewhere
}

func (a *tokenAdapter) CurrentPrincipal(c echo.Context) (*entity.Principal, error) {
	return currentPrincipal(c)
}
