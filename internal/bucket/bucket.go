// Package bucket builds the day and minute bucket keys samples are stored under
package bucket

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dayPrefix  = "date-"
	dayLayout  = "2006-01-02"
	minLayout  = "15:04"
	separator  = "|"
	dayLength  = len(dayPrefix) + len(dayLayout)
	minuteSize = len(minLayout)
)

var (
	ErrMalformedKey     = errors.New("malformed bucket key")
	ErrInvalidCategory  = errors.New("invalid bucket category")
	ErrTimestampRange   = errors.New("timestamp out of range")
	forbiddenInCategory = separator + `*?[]\`

	minUnix = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxUnix = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// Now returns the current instant in UTC. Tests replace it to pin the clock.
var Now = func() time.Time {
	return time.Now().UTC()
}

// DayKey returns the day bucket for t's calendar date, e.g. "date-2024-01-31".
func DayKey(t time.Time) string {
	return dayPrefix + t.Format(dayLayout)
}

// Today returns the day bucket for the current date
func Today() string {
	return DayKey(Now())
}

// FieldKey returns the zero-padded "HH:MM" minute bucket of t in UTC.
func FieldKey(t time.Time) string {
	return t.UTC().Format(minLayout)
}

// ParseTimestamp converts Unix seconds into a UTC instant. Values whose year
// cannot be rendered as a YYYY-MM-DD date are rejected.
func ParseTimestamp(sec int64) (time.Time, error) {
	if sec < minUnix || sec > maxUnix {
		return time.Time{}, fmt.Errorf("%w: %d", ErrTimestampRange, sec)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// Days returns how many day buckets are needed to cover retention.
func Days(retention time.Duration) int {
	if retention < 0 {
		retention = 0
	}
	return int(retention/(24*time.Hour)) + 1
}

// Range returns the n calendar dates ending at end's date, oldest first.
func Range(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	y, m, d := end.Date()
	last := time.Date(y, m, d, 0, 0, 0, 0, end.Location())

	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = last.AddDate(0, 0, i-(n-1))
	}
	return dates
}

// ParseDay parses a "YYYY-MM-DD" date or a full day key into a UTC date.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimPrefix(s, dayPrefix)
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// ValidateCategory reports whether category can be embedded in a key and used
// in a SCAN pattern without escaping.
func ValidateCategory(category string) error {
	if category == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCategory)
	}
	if strings.ContainsAny(category, forbiddenInCategory) {
		return fmt.Errorf("%w: %q contains one of %q", ErrInvalidCategory, category, forbiddenInCategory)
	}
	return nil
}
