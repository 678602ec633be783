// Package store persists samples in Redis and reads them back by pattern
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultScanBatchSize is the SCAN COUNT hint used when none is configured
	DefaultScanBatchSize int64 = 10
	// DefaultMGetBatchSize is the number of keys sent per MGET when none is configured
	DefaultMGetBatchSize = 1000

	// StringType restricts SCAN to string values
	StringType = "string"
)

// Client is the subset of the key-value store the package depends on
type Client interface {
	// Scan returns one page of keys matching match and the cursor to resume
	// from. A returned cursor of 0 means the enumeration is complete.
	Scan(ctx context.Context, cursor uint64, match string, count int64, keyType string) (keys []string, next uint64, err error)
	// MGet returns one Value per key, index-aligned with keys
	MGet(ctx context.Context, keys ...string) ([]Value, error)
	// Set upserts value at key with the given time-to-live
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Value is one MGET slot. Found is false for missing or expired keys.
type Value struct {
	Raw   string
	Found bool
}

// Decode unmarshals the stored JSON text into out
func (v Value) Decode(out interface{}) error {
	if !v.Found {
		return fmt.Errorf("value not found")
	}
	return json.Unmarshal([]byte(v.Raw), out)
}

// MarshalJSON emits the stored JSON as-is, or null for a missing value
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Found {
		return []byte("null"), nil
	}
	if json.Valid([]byte(v.Raw)) {
		return []byte(v.Raw), nil
	}
	return json.Marshal(v.Raw)
}

// Result holds every key matched by a pattern and its value. Keys[i]
// corresponds to Values[i].
type Result struct {
	Keys   []string `json:"keys"`
	Values []Value  `json:"values"`
}

// Len returns the number of matched keys
func (r Result) Len() int {
	return len(r.Keys)
}

// Observer receives timings of individual store round trips
type Observer interface {
	ObserveStoreOp(op string, duration time.Duration, err error)
	ObserveScanPage(keys int)
}

// Options configures Reader and Writer
type Options struct {
	Retention     time.Duration // default TTL for SaveDefault
	ScanBatchSize int64
	MGetBatchSize int
	Observer      Observer
}

func (o Options) withDefaults() Options {
	if o.ScanBatchSize <= 0 {
		o.ScanBatchSize = DefaultScanBatchSize
	}
	if o.MGetBatchSize <= 0 {
		o.MGetBatchSize = DefaultMGetBatchSize
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

type nopObserver struct{}

func (nopObserver) ObserveStoreOp(string, time.Duration, error) {}
func (nopObserver) ObserveScanPage(int)                         {}

// Store bundles a Reader and a Writer over the same client
type Store struct {
	*Reader
	*Writer
	client Client
}

// New creates a Store
func New(client Client, opts Options) *Store {
	return &Store{
		Reader: NewReader(client, opts),
		Writer: NewWriter(client, opts),
		client: client,
	}
}

// Ping checks store connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
