package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reader retrieves every key matching a pattern together with its value
type Reader struct {
	client Client
	opts   Options
}

// NewReader creates a Reader using opts' batch sizes
func NewReader(client Client, opts Options) *Reader {
	return &Reader{client: client, opts: opts.withDefaults()}
}

// FetchMatching is FetchMatchingWith using the configured batch sizes
func (r *Reader) FetchMatching(ctx context.Context, pattern string) (Result, error) {
	return r.FetchMatchingWith(ctx, pattern, r.opts.ScanBatchSize, r.opts.MGetBatchSize)
}

// FetchMatchingWith walks the whole SCAN cursor for pattern, restricted to
// string values, then loads the values with one MGET per mgetBatch keys.
// scanBatch is the COUNT hint passed to SCAN. Non-positive sizes fall back
// to the defaults. The walk is not a snapshot: keys written or expiring
// during it may or may not be seen.
func (r *Reader) FetchMatchingWith(ctx context.Context, pattern string, scanBatch int64, mgetBatch int) (Result, error) {
	if scanBatch <= 0 {
		scanBatch = DefaultScanBatchSize
	}
	if mgetBatch <= 0 {
		mgetBatch = DefaultMGetBatchSize
	}

	log.Debug().Str("query", pattern).Msg("redis query")

	keys, err := r.scanAll(ctx, pattern, scanBatch)
	if err != nil {
		return Result{}, err
	}
	if len(keys) == 0 {
		return Result{Keys: []string{}, Values: []Value{}}, nil
	}

	values := make([]Value, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		batch := keys[start:min(start+mgetBatch, len(keys))]

		begin := time.Now()
		got, err := r.client.MGet(ctx, batch...)
		if err == nil && len(got) != len(batch) {
			err = errMisaligned
		}
		r.opts.Observer.ObserveStoreOp("mget", time.Since(begin), err)
		if err != nil {
			return Result{}, &FetchError{Pattern: pattern, Keys: len(batch), Err: err}
		}
		values = append(values, got...)
	}

	log.Debug().Str("query", pattern).Int("found", len(values)).Msg("redis query complete")

	return Result{Keys: keys, Values: values}, nil
}

// scanAll follows the cursor until the store hands back 0. The cursor starts
// at 0 as well, so started tells the first call apart from completion.
func (r *Reader) scanAll(ctx context.Context, pattern string, count int64) ([]string, error) {
	var (
		keys    []string
		cursor  uint64
		started bool
	)

	for !started || cursor != 0 {
		log.Debug().Uint64("cursor", cursor).Msg("redis scan")

		begin := time.Now()
		page, next, err := r.client.Scan(ctx, cursor, pattern, count, StringType)
		r.opts.Observer.ObserveStoreOp("scan", time.Since(begin), err)
		if err != nil {
			return nil, &ScanError{Pattern: pattern, Cursor: cursor, Err: err}
		}
		r.opts.Observer.ObserveScanPage(len(page))

		started = true
		keys = append(keys, page...)
		cursor = next
	}

	return keys, nil
}
