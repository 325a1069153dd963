package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/config"
)

// ErrLocked means another holder owns the key.
var ErrLocked = errors.New("lock held by another request")

// Delete the key only while it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis wraps the go-redis client. A zero Redis (no address configured)
// grants every lock.
type Redis struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; in-flight locking disabled")
		return &Redis{logger: logger}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, logger: logger}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// TryLock claims key for ttl. It returns ErrLocked when someone else holds
// it. Redis failures fail open: the lock is granted and a warning logged.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error) {
	noop := func(context.Context) {}
	if r == nil || r.Client == nil {
		return noop, nil
	}
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		r.logger.Warn("redis lock unavailable; continuing without it", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) {
		if err := unlockScript.Run(ctx, r.Client, []string{key}, token).Err(); err != nil {
			r.logger.Warn("redis unlock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
