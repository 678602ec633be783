package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Writer persists JSON-encoded samples with an expiry
type Writer struct {
	client Client
	opts   Options
}

// NewWriter creates a Writer. opts.Retention is the TTL used by SaveDefault.
func NewWriter(client Client, opts Options) *Writer {
	return &Writer{client: client, opts: opts.withDefaults()}
}

// Save encodes value as JSON and stores it at key, replacing any previous
// value and its TTL. ttl is truncated to whole seconds and must be at least
// one second. Failures are returned as *WriteError; nothing is retried.
func (w *Writer) Save(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ttl = ttl.Truncate(time.Second)
	if ttl < time.Second {
		return &WriteError{Key: key, Err: fmt.Errorf("ttl must be at least 1s, got %s", ttl)}
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return &WriteError{Key: key, Err: fmt.Errorf("encode value: %w", err)}
	}

	log.Debug().Str("key", key).Msg("save key")
	log.Debug().RawJSON("value", payload).Msg("save value")

	start := time.Now()
	err = w.client.Set(ctx, key, string(payload), ttl)
	w.opts.Observer.ObserveStoreOp("set", time.Since(start), err)
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

// SaveDefault saves value with the configured retention as TTL
func (w *Writer) SaveDefault(ctx context.Context, key string, value interface{}) error {
	return w.Save(ctx, key, value, w.opts.Retention)
}
