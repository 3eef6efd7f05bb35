package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"planner/config"
	"planner/internal/auth"
	"planner/internal/delivery"
	"planner/internal/delivery/api"
	"planner/internal/delivery/api/router/handler"
	"planner/internal/domain/repository"
	"planner/internal/domain/service"
	"planner/internal/errors"
	infraauth "planner/internal/infra/auth"
	"planner/internal/infra/identity"
	logs "planner/internal/infra/log"
	"planner/internal/infra/metrics"
	"planner/internal/infra/persistence/janitor"
	"planner/internal/infra/persistence/memory"
	"planner/internal/infra/persistence/postgres"
	"planner/internal/infra/persistence/redis"
	"planner/internal/infra/pubsub"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeRedis    = "redis"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectAuth(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		metrics.New,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			infraauth.NewPasswordHasher,
			pubsub.NewEventPublisher,
		),
	)
}

func injectAuth() fx.Option {
	return fx.Options(
		fx.Provide(
			newAuthAdapter,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewProbeHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

type authParams struct {
	fx.In
	fx.Lifecycle

	Ctx     context.Context
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Events  service.EventPublisher
	Hasher  service.PasswordHasher
}

// newAuthAdapter builds the adapter selected by auth.mode. Only the stores
// and providers the chosen mode needs are created; an unknown mode stops startup.
func newAuthAdapter(params authParams) (auth.Adapter, error) {
	mode, err := auth.ParseMode(params.Config.Auth.Mode)
	if err != nil {
		return nil, err
	}

	cfg := auth.Config{
		Logger:  params.Logger,
		Metrics: params.Metrics,
		Events:  params.Events,
	}

	switch mode {
	case auth.ModeSession:
		sessionCfg, err := newSessionConfig(params)
		if err != nil {
			return nil, err
		}
		cfg.Session = sessionCfg
	case auth.ModeToken:
		provider, err := identity.New(identity.Params{
			Lc:     params.Lifecycle,
			Ctx:    params.Ctx,
			Config: params.Config,
			Logger: params.Logger,
		})
		if err != nil {
			return nil, err
		}
		cfg.Token = &auth.TokenConfig{Provider: provider}
	}

	adapter, err := auth.New(mode, cfg)
	if err != nil {
		return nil, err
	}
	params.Logger.Info("Auth adapter ready", slog.String("mode", adapter.Mode().String()))

	return adapter, nil
}

func newSessionConfig(params authParams) (*auth.SessionConfig, error) {
	raw := params.Config.Auth.Session
	if raw == nil {
		return nil, errors.New("auth.session configuration is required in session mode")
	}

	sameSite, err := auth.ParseSameSite(raw.SameSite)
	if err != nil {
		return nil, err
	}

	stores := &storeFactory{params: params}

	credentials, err := stores.credentials(raw.CredentialStore)
	if err != nil {
		return nil, err
	}
	sessions, err := stores.sessions(raw.Store, raw.CleanupInterval)
	if err != nil {
		return nil, err
	}

	return &auth.SessionConfig{
		Credentials: credentials,
		Sessions:    sessions,
		Hasher:      params.Hasher,
		Secret:      []byte(raw.Secret),
		CookieName:  raw.CookieName,
		CookieTTL:   raw.CookieTTL,
		IdleTimeout: raw.IdleTimeout,
		Secure:      raw.Secure,
		SameSite:    sameSite,
	}, nil
}

// storeFactory opens each backing database at most once.
type storeFactory struct {
	params authParams
	db     *gorm.DB
}

func (f *storeFactory) postgres() (*gorm.DB, error) {
	if f.db != nil {
		return f.db, nil
	}
	if f.params.Config.Postgres == nil {
		return nil, errors.New("postgres configuration is required for the postgres store")
	}

	pgParams := postgres.Params{
		Lifecycle: f.params.Lifecycle,
		Config:    f.params.Config,
		Logger:    f.params.Logger,
	}
	if f.params.Metrics != nil {
		pgParams.Metrics = f.params.Metrics
	}

	db, err := postgres.New(pgParams)
	if err != nil {
		return nil, err
	}

	// Appended after the ping hook, so tables are migrated once the database is reachable.
	f.params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return postgres.AutoMigrate(ctx, db)
		},
	})
	f.db = db

	return db, nil
}

func (f *storeFactory) credentials(kind string) (repository.CredentialRepository, error) {
	switch strings.ToLower(kind) {
	case "", storeMemory:
		return memory.NewCredentialRepository(), nil
	case storePostgres:
		db, err := f.postgres()
		if err != nil {
			return nil, err
		}

		return postgres.NewCredentialRepository(db), nil
	default:
		return nil, errors.Errorf("unknown credential store: %q", kind)
	}
}

func (f *storeFactory) sessions(kind string, cleanupInterval time.Duration) (repository.SessionRepository, error) {
	var sessions repository.SessionRepository

	switch strings.ToLower(kind) {
	case "", storeMemory:
		sessions = memory.NewSessionRepository()
	case storePostgres:
		db, err := f.postgres()
		if err != nil {
			return nil, err
		}
		sessions = postgres.NewSessionRepository(db)
	case storeRedis:
		client, err := redis.New(redis.Params{
			Lifecycle: f.params.Lifecycle,
			Config:    f.params.Config,
			Logger:    f.params.Logger,
		})
		if err != nil {
			return nil, err
		}

		// Redis expires keys itself.
		return redis.NewSessionRepository(client, f.params.Config.Redis.Prefix), nil
	default:
		return nil, errors.Errorf("unknown session store: %q", kind)
	}

	sweeper := janitor.New(sessions, cleanupInterval, f.params.Logger)
	f.params.Append(fx.Hook{
		OnStart: sweeper.Start,
		OnStop:  sweeper.Stop,
	})

	return sessions, nil
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
