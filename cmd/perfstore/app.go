package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/perfstore/internal/config"
	"github.com/sawpanic/perfstore/internal/store"
)

// openStore dials Redis, wraps it in the circuit breaker unless disabled and
// verifies connectivity.
func openStore(ctx context.Context, c *config.Config, observer store.Observer) (*store.Store, error) {
	client := store.Dial(c.Redis)
	if !c.Breaker.Disabled {
		client = store.NewBreakerClient(client, c.Breaker)
	}

	s := store.New(client, store.Options{
		Retention:     c.Retention,
		ScanBatchSize: c.Scan.BatchSize,
		MGetBatchSize: c.Scan.MGetBatchSize,
		Observer:      observer,
	})

	pingCtx, cancel := context.WithTimeout(ctx, c.Redis.DialTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open store at %s: %w", c.Redis.Addr, err)
	}

	log.Debug().
		Str("addr", c.Redis.Addr).
		Bool("legacy_client", c.Redis.LegacyClient).
		Bool("breaker", !c.Breaker.Disabled).
		Dur("retention", c.Retention).
		Msg("Store opened")
	return s, nil
}

// commandTimeout bounds one-shot CLI commands
const commandTimeout = 60 * time.Second
