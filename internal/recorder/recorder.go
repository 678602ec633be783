// Package recorder files samples under their minute bucket
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sawpanic/perfstore/internal/bucket"
)

// Saver persists an encoded value under a key
type Saver interface {
	Save(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SaveDefault(ctx context.Context, key string, value interface{}) error
}

// Recorder assigns each sample a bucket key and saves it
type Recorder struct {
	saver Saver
	newID func() string
}

// New creates a Recorder writing through saver
func New(saver Saver) *Recorder {
	return &Recorder{saver: saver, newID: uuid.NewString}
}

// Record saves value in the current minute bucket of category using the
// configured retention
func (r *Recorder) Record(ctx context.Context, category string, value interface{}) (bucket.Key, error) {
	return r.RecordAt(ctx, category, bucket.Now(), value, 0)
}

// RecordAt saves value in the minute bucket containing at. A ttl of zero
// means the configured retention.
func (r *Recorder) RecordAt(ctx context.Context, category string, at time.Time, value interface{}, ttl time.Duration) (bucket.Key, error) {
	key, err := bucket.NewKey(category, at, r.newID())
	if err != nil {
		return bucket.Key{}, err
	}

	if ttl == 0 {
		err = r.saver.SaveDefault(ctx, key.String(), value)
	} else {
		err = r.saver.Save(ctx, key.String(), value, ttl)
	}
	if err != nil {
		return bucket.Key{}, err
	}
	return key, nil
}
