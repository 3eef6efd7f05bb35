// Package redis provides a Redis-backed session store. Redis key expiry
// handles eviction, so no janitor is needed.
package redis

import (
	"context"
	"log/slog"

	"planner/config"
	"planner/internal/domain/lifecycle"
	"planner/internal/errors"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const defaultPrefix = "planner:session:"

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the Redis client and ties its lifetime to the application.
func New(params Params) (*goredis.Client, error) {
	if params.Config.Redis == nil {
		return nil, errors.New("redis configuration is required for the redis session store")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     params.Config.Redis.Addr,
		Password: params.Config.Redis.Password,
		DB:       params.Config.Redis.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping Redis")
			}
			params.Logger.Info("Redis ready", slog.String("addr", params.Config.Redis.Addr))

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
