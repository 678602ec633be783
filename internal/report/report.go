// Package report turns stored samples into per-minute and per-day summaries
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/perfstore/internal/bucket"
	"github.com/sawpanic/perfstore/internal/stats"
	"github.com/sawpanic/perfstore/internal/store"
)

// Fetcher loads every sample matching a key pattern
type Fetcher interface {
	FetchMatching(ctx context.Context, pattern string) (store.Result, error)
}

// Options configures a Builder
type Options struct {
	ValueField  string // object field holding the measurement
	Concurrency int    // days fetched in parallel by Range
}

// MinuteReport summarizes one minute bucket
type MinuteReport struct {
	Minute string `json:"minute"`
	stats.Summary
}

// DayReport summarizes one category over one day bucket
type DayReport struct {
	Category string         `json:"category"`
	Day      string         `json:"day"`
	Minutes  []MinuteReport `json:"minutes"`
	Total    stats.Summary  `json:"total"`
	Skipped  int            `json:"skipped"` // values without a usable number
}

// Builder builds reports from a Fetcher
type Builder struct {
	fetcher Fetcher
	opts    Options
}

// NewBuilder creates a Builder
func NewBuilder(fetcher Fetcher, opts Options) *Builder {
	if opts.ValueField == "" {
		opts.ValueField = "duration"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Builder{fetcher: fetcher, opts: opts}
}

// Day reports every minute of day that holds samples for category, in
// ascending minute order.
func (b *Builder) Day(ctx context.Context, category string, day time.Time) (DayReport, error) {
	if err := bucket.ValidateCategory(category); err != nil {
		return DayReport{}, err
	}

	res, err := b.fetcher.FetchMatching(ctx, bucket.DayPattern(category, day))
	if err != nil {
		return DayReport{}, fmt.Errorf("fetch %s %s: %w", category, bucket.DayKey(day), err)
	}

	report := DayReport{Category: category, Day: bucket.DayKey(day), Minutes: []MinuteReport{}}

	byMinute := make(map[string][]float64)
	var all []float64
	for i, raw := range res.Keys {
		key, err := bucket.ParseKey(raw)
		if err != nil {
			report.Skipped++
			continue
		}
		v, ok := Extract(res.Values[i], b.opts.ValueField)
		if !ok {
			report.Skipped++
			continue
		}
		byMinute[key.Minute] = append(byMinute[key.Minute], v)
		all = append(all, v)
	}

	for minute, values := range byMinute {
		report.Minutes = append(report.Minutes, MinuteReport{Minute: minute, Summary: stats.Summarize(values)})
	}
	sort.Slice(report.Minutes, func(i, j int) bool {
		return report.Minutes[i].Minute < report.Minutes[j].Minute
	})
	report.Total = stats.Summarize(all)

	log.Debug().
		Str("category", category).
		Str("day", report.Day).
		Int("samples", len(all)).
		Int("skipped", report.Skipped).
		Msg("Day report built")

	return report, nil
}

// Minute reports the minute bucket containing at
func (b *Builder) Minute(ctx context.Context, category string, at time.Time) (MinuteReport, error) {
	if err := bucket.ValidateCategory(category); err != nil {
		return MinuteReport{}, err
	}

	res, err := b.fetcher.FetchMatching(ctx, bucket.MinutePattern(category, at))
	if err != nil {
		return MinuteReport{}, fmt.Errorf("fetch %s %s: %w", category, bucket.FieldKey(at), err)
	}

	var values []float64
	for _, v := range res.Values {
		if f, ok := Extract(v, b.opts.ValueField); ok {
			values = append(values, f)
		}
	}
	return MinuteReport{Minute: bucket.FieldKey(at), Summary: stats.Summarize(values)}, nil
}

// Range reports the days calendar days ending at end, oldest first. Days are
// fetched concurrently; the first failure cancels the rest.
func (b *Builder) Range(ctx context.Context, category string, end time.Time, days int) ([]DayReport, error) {
	dates := bucket.Range(end, days)
	reports := make([]DayReport, len(dates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, day := range dates {
		i, day := i, day
		g.Go(func() error {
			r, err := b.Day(ctx, category, day)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Extract returns the measurement held by a stored value: a bare JSON number,
// or the numeric field of a JSON object.
func Extract(v store.Value, field string) (float64, bool) {
	if !v.Found {
		return 0, false
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(v.Raw), &decoded); err != nil {
		return 0, false
	}

	switch val := decoded.(type) {
	case float64:
		return val, true
	case map[string]interface{}:
		f, ok := val[field].(float64)
		return f, ok
	default:
		return 0, false
	}
}
