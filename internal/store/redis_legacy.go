package store

import (
	"context"
	"fmt"
	"time"

	redisv8 "github.com/go-redis/redis/v8"

	"github.com/sawpanic/perfstore/internal/config"
)

// LegacyRedisClient implements Client on go-redis v8 for deployments still
// pinned to that client
type LegacyRedisClient struct {
	rdb redisv8.UniversalClient
}

// NewLegacyRedisClient wraps an existing go-redis v8 client
func NewLegacyRedisClient(rdb redisv8.UniversalClient) *LegacyRedisClient {
	return &LegacyRedisClient{rdb: rdb}
}

func newLegacyFromConfig(cfg config.Redis) *LegacyRedisClient {
	return NewLegacyRedisClient(redisv8.NewClient(&redisv8.Options{
		Addr:               cfg.Addr,
		Password:           cfg.Password,
		DB:                 cfg.DB,
		PoolSize:           cfg.PoolSize,
		DialTimeout:        cfg.DialTimeout,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        5 * time.Minute,
		IdleCheckFrequency: 1 * time.Minute,
		MaxRetries:         -1,
	}))
}

func (c *LegacyRedisClient) Scan(ctx context.Context, cursor uint64, match string, count int64, keyType string) ([]string, uint64, error) {
	keys, next, err := c.rdb.ScanType(ctx, cursor, match, count, keyType).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis scan: %w", err)
	}
	return keys, next, nil
}

func (c *LegacyRedisClient) MGet(ctx context.Context, keys ...string) ([]Value, error) {
	raw, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	return toValues(raw), nil
}

func (c *LegacyRedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *LegacyRedisClient) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (c *LegacyRedisClient) Close() error {
	return c.rdb.Close()
}
