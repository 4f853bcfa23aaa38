package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(logger *zap.Logger, opts RedisOptions) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newRedisCache(logger, client, opts.TTL)
}

func newRedisCache(logger *zap.Logger, client redis.Cmdable, ttl time.Duration) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Ping checks the connection to Redis.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get retrieves a breakdown from cache.
func (c *RedisCache) Get(ctx context.Context, key string) (tax.Breakdown, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss",
			zap.String("op", "cache.Get"),
			zap.String("key", key),
		)
		return tax.Breakdown{}, false, nil
	}
	if err != nil {
		c.logger.Error("cache get error",
			zap.String("op", "cache.Get"),
			zap.String("key", key),
			zap.Error(err),
		)
		return tax.Breakdown{}, false, err
	}

	var b tax.Breakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return tax.Breakdown{}, false, err
	}

	c.logger.Debug("cache hit",
		zap.String("op", "cache.Get"),
		zap.String("key", key),
	)
	return b, true, nil
}

// Set stores a breakdown in cache.
func (c *RedisCache) Set(ctx context.Context, key string, b tax.Breakdown) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set error",
			zap.String("op", "cache.Set"),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}

	c.logger.Debug("breakdown cached",
		zap.String("op", "cache.Set"),
		zap.String("key", key),
		zap.Duration("ttl", c.ttl),
	)
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
