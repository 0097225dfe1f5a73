package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/config"
)

const keyPrefix = "ratelimit:"

// Limiter counts requests per key in fixed windows stored in Redis
type Limiter struct {
	rdb *goredis.Client
}

// NewRedisClient connects to Redis and pings it. It returns nil, nil when
// Redis is not configured.
func NewRedisClient(cfg config.RedisConfig, log *zap.Logger) (*goredis.Client, error) {
	addr := cfg.Addr()
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", zap.String("addr", addr))
	return rdb, nil
}

func NewLimiter(rdb *goredis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// Allow increments the counter for key and reports whether it is still
// within limit. The window starts with the first request. A counter found
// without a TTL gets one, so a failed EXPIRE cannot lock a client out.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = keyPrefix + key

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if ttl < 0 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}
