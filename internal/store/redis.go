package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sawpanic/perfstore/internal/config"
)

// RedisClient implements Client on go-redis v9
type RedisClient struct {
	rdb redis.UniversalClient
}

// NewRedisClient wraps an existing go-redis client
func NewRedisClient(rdb redis.UniversalClient) *RedisClient {
	return &RedisClient{rdb: rdb}
}

// Dial builds the client selected by cfg without contacting the server
func Dial(cfg config.Redis) Client {
	if cfg.LegacyClient {
		return newLegacyFromConfig(cfg)
	}

	return NewRedisClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize: cfg.PoolSize,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		// retries belong to callers
		MaxRetries: -1,
	}))
}

func (c *RedisClient) Scan(ctx context.Context, cursor uint64, match string, count int64, keyType string) ([]string, uint64, error) {
	keys, next, err := c.rdb.ScanType(ctx, cursor, match, count, keyType).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis scan: %w", err)
	}
	return keys, next, nil
}

func (c *RedisClient) MGet(ctx context.Context, keys ...string) ([]Value, error) {
	raw, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	return toValues(raw), nil
}

func (c *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}

// toValues converts an MGET reply, where missing keys come back as nil
func toValues(raw []interface{}) []Value {
	values := make([]Value, len(raw))
	for i, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			values[i] = Value{Raw: val, Found: true}
		case []byte:
			values[i] = Value{Raw: string(val), Found: true}
		default:
			values[i] = Value{Raw: fmt.Sprint(val), Found: true}
		}
	}
	return values
}
