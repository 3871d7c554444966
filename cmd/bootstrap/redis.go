package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/lock"
	"booking-engine/internal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewRedis,
	),
)

func NewRedis(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) *redis.Client {
	client := lock.NewRedisClient(cfg.Redis)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			logger.Info("Redis connected", slog.String("addr", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client
}
