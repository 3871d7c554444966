package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token, so a
// lease that outlived its TTL cannot free a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisLocker(client redis.UniversalClient, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lease, error) {
	token, err := newToken()
	if err != nil {
		return nil, errs.Wrap(err, "failed to generate lease token")
	}

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errs.Wrapf(err, "failed to acquire lease %s", key)
	}
	if !ok {
		return nil, shared.ErrLockNotAcquired
	}
	return &redisLease{client: l.client, key: key, token: token, logger: l.logger}, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
	logger *slog.Logger
}

func (r *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Int()
	if err != nil {
		return errs.Wrapf(err, "failed to release lease %s", r.key)
	}
	if n == 0 {
		r.logger.Warn("Lease expired before release", slog.String("key", r.key))
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
