package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	deliverycontext "planner/internal/delivery/context"
	"planner/internal/domain/repository"
	"planner/internal/domain/service"
	"planner/internal/errors"

	"github.com/google/uuid"
)

const (
	DefaultCookieName = "planner_session"
	DefaultCookieTTL  = 24 * time.Hour

	minSecretLength = 32
	defaultSameSite = http.SameSiteLaxMode
)

// Config carries everything New needs. Only the section matching the
// requested mode is read; the other one may be nil or partially filled.
type Config struct {
	Session *SessionConfig
	Token   *TokenConfig

	Logger  *slog.Logger
	Metrics service.AuthMetrics    // Optional
	Events  service.EventPublisher // Optional

	// Clock overrides time.Now, mainly for expiry tests.
	Clock func() time.Time
}

// SessionConfig configures the cookie-backed session adapter.
type SessionConfig struct {
	Credentials repository.CredentialRepository
	Sessions    repository.SessionRepository
	Hasher      service.PasswordHasher

	Secret      []byte
	CookieName  string
	CookieTTL   time.Duration
	IdleTimeout time.Duration // Zero disables idle expiry
	Secure      bool
	SameSite    http.SameSite
}

// TokenConfig configures the bearer-token adapter.
type TokenConfig struct {
	Provider service.IdentityProvider
}

// New builds the adapter for mode. It performs no I/O.
func New(mode Mode, cfg Config) (Adapter, error) {
	deps := newShared(cfg)

	switch mode {
	case ModeSession:
		if cfg.Session == nil {
			return nil, errors.New("auth: session mode requires session configuration")
		}

		adapter, err := newSessionAdapter(*cfg.Session, deps)
		if err != nil {
			return nil, err
		}

		return adapter, nil
	case ModeToken:
		if cfg.Token == nil {
			return nil, errors.New("auth: token mode requires token configuration")
		}

		adapter, err := newTokenAdapter(*cfg.Token, deps)
		if err != nil {
			return nil, err
		}

		return adapter, nil
	default:
		return nil, &UnsupportedModeError{Mode: string(mode)}
	}
}

// ParseSameSite maps a configuration value to http.SameSite; empty means lax.
func ParseSameSite(raw string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, errors.Errorf("auth: unknown sameSite value %q", raw)
	}
}

// shared holds the collaborators both variants use.
type shared struct {
	logger  *slog.Logger
	metrics service.AuthMetrics
	events  service.EventPublisher
	now     func() time.Time
}

func newShared(cfg Config) shared {
	deps := shared{
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		events:  cfg.Events,
		now:     cfg.Clock,
	}
	if deps.logger == nil {
		deps.logger = slog.New(slog.DiscardHandler)
	}
	if deps.metrics == nil {
		deps.metrics = noopMetrics{}
	}
	if deps.events == nil {
		deps.events = noopEvents{}
	}
	if deps.now == nil {
		deps.now = time.Now
	}

	return deps
}

func (s shared) requestLogger(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerOrDefault(ctx, s.logger)
}

// publish sends an audit event; failures are logged and never affect the caller.
func (s shared) publish(ctx context.Context, eventType service.AuthEventType, userID string) {
	event := &service.AuthEvent{
		RequestID:  deliverycontext.RequestIDFromContext(ctx),
		EventID:    uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: s.now().UTC(),
	}

	if err := s.events.PublishAuthEvent(ctx, event); err != nil {
		s.requestLogger(ctx).Warn("Failed to publish auth event",
			slog.String("event_type", string(eventType)),
			slog.Any("error", err),
		)
	}
}

// discardIfDone reports the context error when the request ended while a
// store or provider call was in flight, so its result is never attached.
func (s shared) discardIfDone(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		s.requestLogger(ctx).Debug("Request ended before authentication completed",
			slog.String("stage", stage),
			slog.Any("error", err),
		)

		return errors.WithStack(err)
	}

	return nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveGuard(string, string)        {}
func (noopMetrics) ObserveCredentialOp(string, string) {}

type noopEvents struct{}

func (noopEvents) PublishAuthEvent(context.Context, *service.AuthEvent) error { return nil }
func (noopEvents) Close() error                                            { return nil }
