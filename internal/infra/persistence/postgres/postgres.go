package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"planner/config"
	"planner/internal/domain/lifecycle"
	"planner/internal/errors"

	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	poolWatchInterval     = 5 * time.Second
	poolWaitWarnThreshold = 50 * time.Millisecond
)

// PoolStatsRegisterer exports connection pool statistics.
type PoolStatsRegisterer interface {
	RegisterDBStats(db *sql.DB, name string)
}

type Params struct {
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
	// Metrics is optional.
	Metrics PoolStatsRegisterer
}

// New opens the credential and session database. The connection is pinged
// on start so a bad DSN fails startup instead of the first login.
func New(params Params) (*gorm.DB, error) {
	db, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}
	db = db.Session(&gorm.Session{
		// Every auth store write is a single statement, so GORM's implicit transaction is pure overhead.
		SkipDefaultTransaction: true,
		Logger:                 newGormSlogLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}
	if params.Metrics != nil {
		params.Metrics.RegisterDBStats(sqlDB, "auth")
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			go watchPoolWaits(watchCtx, params.Logger, sqlDB)

			return nil
		},
		OnStop: func(context.Context) error {
			stopWatch()

			return sqlDB.Close()
		},
	})

	return db, nil
}

// watchPoolWaits warns when logins queue for a connection. Totals are left
// to the metrics endpoint; this only surfaces sustained contention in the logs.
func watchPoolWaits(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB) {
	if logger == nil {
		return
	}

	ticker := time.NewTicker(poolWatchInterval)
	defer ticker.Stop()

	prev := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := sqlDB.Stats()
			waits := cur.WaitCount - prev.WaitCount
			waited := cur.WaitDuration - prev.WaitDuration
			prev = cur

			if waits == 0 || waited < poolWaitWarnThreshold {
				continue
			}
			logger.LogAttrs(ctx, slog.LevelWarn, "Auth store connection pool saturated",
				slog.Int64("waits", waits),
				slog.Duration("avgWait", waited/time.Duration(waits)),
				slog.Int("inUse", cur.InUse),
				slog.Int("maxOpen", cur.MaxOpenConnections),
			)
		}
	}
}
