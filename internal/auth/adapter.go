// Package auth implements the authentication adapter contract used by the HTTP layer.
//
// Exactly one Adapter is built at startup by New. Two variants exist: the session
// adapter keeps server-side sessions behind a signed cookie and verifies passwords
// locally, and the token adapter verifies a bearer token against an identity
// provider on every request. Handlers read the resulting entity.Principal the same
// way regardless of which variant produced it.
package auth

import (
	"context"

	"planner/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// Adapter is the capability contract shared by both authentication variants.
// The set of implementations is closed; values are only obtained from New.
type Adapter interface {
	// Mode reports which variant this adapter is.
	Mode() Mode

	// Install wires request-scoped machinery into the server. It must be called
	// once before serving; a second call returns ErrAlreadyInstalled.
	Install(e *echo.Echo) error

	// Guard returns middleware that admits a request only when it carries valid
	// credentials for this mode. On success the principal is attached to the
	// request; on failure next is never called.
	Guard() echo.MiddlewareFunc

	// Register creates local credentials and returns the new principal.
	Register(ctx context.Context, username, password string) (*entity.Principal, error)

	// Login verifies credentials and binds a new authenticated state to the request.
	Login(c echo.Context, username, password string) (*entity.Principal, error)

	// Logout ends the authenticated state carried by the request.
	Logout(c echo.Context) (*LogoutResult, error)

	// CurrentPrincipal returns the principal attached to this request by Guard or Login.
	CurrentPrincipal(c echo.Context) (*entity.Principal, error)

	sealed()
}

// LogoutResult describes what a successful logout actually did.
// Client-visible state is always cleared; StoreErr reports a server-side
// cleanup failure that the caller may choose to surface or ignore.
type LogoutResult struct {
	HadSession bool  // The request presented a session.
	Destroyed  bool  // The session record is gone from the store.
	StoreErr   error // Non-nil when the store failed to destroy the session.
}
