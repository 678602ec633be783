package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/perfstore/internal/config"
)

// BreakerClient fails fast once the store has failed ConsecutiveFailures
// times in a row. It never retries a call.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps next with a circuit breaker configured by cfg
func NewBreakerClient(next Client, cfg config.Breaker) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Store circuit breaker state changed")
		},
		// a cancelled caller says nothing about store health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerClient{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State reports the breaker state ("closed", "half-open", "open")
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}

func (b *BreakerClient) Scan(ctx context.Context, cursor uint64, match string, count int64, keyType string) ([]string, uint64, error) {
	type page struct {
		keys []string
		next uint64
	}
	res, err := b.cb.Execute(func() (interface{}, error) {
		keys, next, err := b.next.Scan(ctx, cursor, match, count, keyType)
		return page{keys: keys, next: next}, err
	})
	if err != nil {
		return nil, 0, err
	}
	p := res.(page)
	return p.keys, p.next, nil
}

func (b *BreakerClient) MGet(ctx context.Context, keys ...string) ([]Value, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.MGet(ctx, keys...)
	})
	if err != nil {
		return nil, err
	}
	return res.([]Value), nil
}

func (b *BreakerClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value, ttl)
	})
	return err
}

// Ping bypasses the breaker so health checks can observe recovery
func (b *BreakerClient) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *BreakerClient) Close() error {
	return b.next.Close()
}
