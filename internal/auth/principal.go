package auth

import (
	"context"

	"planner/internal/domain/entity"
	domainerrors "planner/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

type principalContextKey struct{}

const (
	echoPrincipalKey = "auth.principal"
	echoSessionIDKey = "auth.session_id"
)

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *entity.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal attached to ctx, if any.
// Services below the HTTP layer use this instead of the echo context.
func PrincipalFromContext(ctx context.Context) (*entity.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*entity.Principal)

	return p, ok && p != nil
}

func attachPrincipal(c echo.Context, p *entity.Principal) {
	c.Set(echoPrincipalKey, p)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
}

func detachPrincipal(c echo.Context) {
	if _, ok := c.Get(echoPrincipalKey).(*entity.Principal); !ok {
		return
	}

	c.Set(echoPrincipalKey, nil)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), nil)))
}

func currentPrincipal(c echo.Context) (*entity.Principal, error) {
	if p, ok := c.Get(echoPrincipalKey).(*entity.Principal); ok && p != nil {
		return p, nil
	}

	return nil, domainerrors.ErrNotAuthenticated
}
