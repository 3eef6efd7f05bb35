package auth

import (
	"context"
	"log/slog"
	"sync/atomic"

	"planner/internal/domain/entity"
	domainerrors "planner/internal/domain/errors"
	"planner/internal/domain/repository"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"github.com/labstack/echo/v4"
)

// dummyPassword is hashed at construction so unknown usernames cost the same
// verify work as known ones.
const dummyPassword = "planner-timing-equaliser"

type sessionAdapter struct {
	shared

	cfg       SessionConfig
	codec     cookieCodec
	installed atomic.Bool

	// dummyHash is verified against for unknown usernames.
	dummyHash string
}

func newSessionAdapter(cfg SessionConfig, deps shared) (*sessionAdapter, error) {
	if cfg.Credentials == nil || cfg.Sessions == nil || cfg.Hasher == nil {
		return nil, errors.New("auth: session mode requires credential store, session store and hasher")
	}
	if len(cfg.Secret) < minSecretLength {
		return nil, errors.Errorf("auth: session secret must be at least %d bytes", minSecretLength)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = DefaultCookieTTL
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = defaultSameSite
	}

	dummyHash, err := cfg.Hasher.Hash(context.Background(), dummyPassword)
	if err != nil {
		return nil, errors.Wrap(err, "auth: prepare timing-equalisation hash")
	}

	return &sessionAdapter{
		shared:    deps,
		cfg:       cfg,
		codec:     cookieCodec{secret: cfg.Secret},
		dummyHash: dummyHash,
	}, nil
}

func (a *sessionAdapter) sealed() {}

func (a *sessionAdapter) Mode() Mode {
	return ModeSession
}

// Install registers the cookie loader. It only decodes and authenticates the
// cookie signature; store lookups happen in Guard.
func (a *sessionAdapter) Install(e *echo.Echo) error {
	if !a.installed.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}

	e.Use(a.loadSession)

	return nil
}

func (a *sessionAdapter) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(a.cfg.CookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		if id, ok := a.codec.decode(cookie.Value); ok {
			c.Set(echoSessionIDKey, id)
		} else {
			a.requestLogger(c.Request().Context()).Debug("Ignoring session cookie with bad signature")
		}

		return next(c)
	}
}

func loadedSessionID(c echo.Context) (string, bool) {
	id, ok := c.Get(echoSessionIDKey).(string)

	return id, ok && id != ""
}

func (a *sessionAdapter) Guard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.installed.Load() {
				return errors.WithStack(ErrNotInstalled)
			}

			principal, err := a.authenticate(c)
			a.metrics.ObserveGuard(ModeSession.String(), outcomeOf(err))
			if err != nil {
				return err
			}

			attachPrincipal(c, principal)

			return next(c)
		}
	}
}

func (a *sessionAdapter) authenticate(c echo.Context) (*entity.Principal, error) {
	ctx := c.Request().Context()
	logger := a.requestLogger(ctx)

	sessionID, ok := loadedSessionID(c)
	if !ok {
		return nil, domainerrors.ErrAuthenticationRequired
	}

	sess, err := a.cfg.Sessions.FindByID(ctx, sessionID)
	if doneErr := a.discardIfDone(ctx, "session lookup"); doneErr != nil {
		return nil, doneErr
	}
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.SetCookie(a.expiredCookie())

		return nil, domainerrors.ErrAuthenticationRequired
	}
	if err != nil {
		logger.Error("Session lookup failed", slog.Any("error", err))

		return nil, domainerrors.NewStoreFailure(err, "session.find")
	}

	now := a.now()
	if sess.IsExpiredAt(now) || sess.IsIdleAt(now, a.cfg.IdleTimeout) {
		a.destroyStale(ctx, sess.ID, "expired")
		c.SetCookie(a.expiredCookie())

		return nil, domainerrors.ErrAuthenticationRequired
	}

	cred, err := a.cfg.Credentials.FindByID(ctx, sess.UserID)
	if doneErr := a.discardIfDone(ctx, "credential lookup"); doneErr != nil {
		return nil, doneErr
	}
	if errors.Is(err, repository.ErrCredentialNotFound) {
		a.destroyStale(ctx, sess.ID, "unknown user")
		c.SetCookie(a.expiredCookie())

		return nil, domainerrors.ErrAuthenticationRequired
	}
	if err != nil {
		logger.Error("Credential lookup failed", slog.Int64("user_id", sess.UserID), slog.Any("error", err))

		return nil, domainerrors.NewStoreFailure(err, "credential.find_by_id")
	}

	if err := a.cfg.Sessions.Touch(ctx, sess.ID, now); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		logger.Warn("Failed to record session activity", slog.Any("error", err))
	}
	if doneErr := a.discardIfDone(ctx, "session touch"); doneErr != nil {
		return nil, doneErr
	}

	return cred.Principal(), nil
}

// destroyStale removes a session the guard refused; eviction is the store's
// job, so a failure here is only logged.
func (a *sessionAdapter) destroyStale(ctx context.Context, sessionID, reason string) {
	if err := a.cfg.Sessions.Destroy(ctx, sessionID); err != nil {
		a.requestLogger(ctx).Warn("Failed to destroy stale session",
			slog.String("reason", reason),
			slog.Any("error", err),
		)
	}
}

func (a *sessionAdapter) Register(ctx context.Context, username, password string) (*entity.Principal, error) {
	principal, err := a.register(ctx, username, password)
	a.metrics.ObserveCredentialOp("register", outcomeOf(err))
	if err != nil {
		return nil, err
	}

	a.publish(ctx, service.AuthEventRegistered, principal.ID)

	return principal, nil
}

func (a *sessionAdapter) register(ctx context.Context, username, password string) (*entity.Principal, error) {
	_, err := a.cfg.Credentials.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, domainerrors.ErrDuplicateUsername
	case !errors.Is(err, repository.ErrCredentialNotFound):
		a.requestLogger(ctx).Error("Credential lookup failed during registration", slog.Any("error", err))

		return nil, domainerrors.NewStoreFailure(err, "credential.find")
	}

	hash, err := a.cfg.Hasher.Hash(ctx, password)
	if err != nil {
		if doneErr := a.discardIfDone(ctx, "password hash"); doneErr != nil {
			return nil, doneErr
		}
		if errors.Is(err, service.ErrPasswordUnacceptable) {
			return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
		}

		return nil, errors.Wrap(err, "failed to hash password")
	}

	cred, err := a.cfg.Credentials.Create(ctx, username, hash)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		return nil, domainerrors.ErrDuplicateUsername
	}
	if err != nil {
		a.requestLogger(ctx).Error("Failed to store credential", slog.Any("error", err))

		return nil, domainerrors.NewStoreFailure(err, "credential.create")
	}

	return cred.Principal(), nil
}

func (a *sessionAdapter) Login(c echo.Context, username, password string) (*entity.Principal, error) {
	ctx := c.Request().Context()

	cred, err := a.verifyCredentials(ctx, username, password)
	if err != nil {
		a.metrics.ObserveCredentialOp("login", outcomeOf(err))
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			a.publish(ctx, service.AuthEventLoginFailure, "")
		}

		return nil, err
	}

	a.upgradeHash(ctx, cred, password)

	sess, err := a.cfg.Sessions.Create(ctx, cred.ID, a.cfg.CookieTTL)
	if err != nil {
		a.requestLogger(ctx).Error("Failed to create session", slog.Int64("user_id", cred.ID), slog.Any("error", err))
		storeErr := domainerrors.NewStoreFailure(err, "session.create")
		a.metrics.ObserveCredentialOp("login", outcomeOf(storeErr))

		return nil, storeErr
	}

	c.SetCookie(a.sessionCookie(sess, a.now()))
	c.Set(echoSessionIDKey, sess.ID)

	principal := cred.Principal()
	attachPrincipal(c, principal)

	a.metrics.ObserveCredentialOp("login", outcomeSuccess)
	a.publish(ctx, service.AuthEventLoginSuccess, principal.ID)

	return principal, nil
}

// verifyCredentials returns ErrInvalidCredentials, unwrapped, for both an unknown
// username and a wrong password so callers cannot tell the two apart.
func (a *sessionAdapter) verifyCredentials(ctx context.Context, username, password string) (*entity.Credential, error) {
	cred, err := a.cfg.Credentials.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		a.verifyDummy(ctx, password)

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		a.requestLogger(ctx).Error("Credential lookup failed during login", slog.Any("error", err))

		return nil, domainerrors.NewStoreFailure(err, "credential.find")
	}

	ok, err := a.cfg.Hasher.Verify(ctx, password, cred.PasswordHash)
	if doneErr := a.discardIfDone(ctx, "password verify"); doneErr != nil {
		return nil, doneErr
	}
	if err != nil {
		a.requestLogger(ctx).Error("Stored password hash is unreadable",
			slog.Int64("user_id", cred.ID),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrInvalidCredentials
	}
	if !ok {
		return nil, domainerrors.ErrInvalidCredentials
	}

	return cred, nil
}

func (a *sessionAdapter) verifyDummy(ctx context.Context, password string) {
	_, _ = a.cfg.Hasher.Verify(ctx, password, a.dummyHash)
}

// upgradeHash re-hashes the password when the stored hash uses outdated
// parameters. The login never fails because of it.
func (a *sessionAdapter) upgradeHash(ctx context.Context, cred *entity.Credential, password string) {
	if !a.cfg.Hasher.NeedsUpgrade(cred.PasswordHash) {
		return
	}

	logger := a.requestLogger(ctx)
	hash, err := a.cfg.Hasher.Hash(ctx, password)
	if err != nil {
		logger.Warn("Failed to compute upgraded password hash", slog.Int64("user_id", cred.ID), slog.Any("error", err))

		return
	}

	if err := a.cfg.Credentials.UpdatePasswordHash(ctx, cred.ID, hash); err != nil {
		logger.Warn("Failed to store upgraded password hash", slog.Int64("user_id", cred.ID), slog.Any("error", err))

		return
	}

	logger.Info("Upgraded password hash", slog.Int64("user_id", cred.ID))
}

// Logout clears the cookie and the request principal unconditionally. A store
// failure is reported in the result rather than as an error.
func (a *sessionAdapter) Logout(c echo.Context) (*LogoutResult, error) {
	ctx := c.Request().Context()
	result := &LogoutResult{}

	var userID string
	if p, err := currentPrincipal(c); err == nil {
		userID = p.ID
	}

	sessionID, hadSession := loadedSessionID(c)

	c.SetCookie(a.expiredCookie())
	c.Set(echoSessionIDKey, nil)
	detachPrincipal(c)

	if !hadSession {
		a.metrics.ObserveCredentialOp("logout", outcomeSuccess)

		return result, nil
	}
	result.HadSession = true

	if err := a.cfg.Sessions.Destroy(ctx, sessionID); err != nil {
		a.requestLogger(ctx).Error("Failed to destroy session on logout", slog.Any("error", err))
		result.StoreErr = domainerrors.NewStoreFailure(err, "session.destroy")
		a.metrics.ObserveCredentialOp("logout", outcomeError)
	} else {
		result.Destroyed = true
		a.metrics.ObserveCredentialOp("logout", outcomeSuccess)
	}

	a.publish(ctx, service.AuthEventLogout, userID)

	return result, nil
}

func (a *sessionAdapter) CurrentPrincipal(c echo.Context) (*entity.Principal, error) {
	return currentPrincipal(c)
}
