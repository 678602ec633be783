package bucket

import (
	"fmt"
	"strings"
	"time"
)

// Key is the full store key of one sample:
//
//	<category>|date-YYYY-MM-DD|HH:MM|<id>
//
// Day and Minute hold the DayKey and FieldKey fragments. ID keeps samples
// recorded in the same minute from overwriting each other.
type Key struct {
	Category string
	Day      string
	Minute   string
	ID       string
}

// NewKey builds the key for a sample recorded at t. The day bucket uses t's
// UTC date so it always agrees with the UTC minute bucket.
func NewKey(category string, t time.Time, id string) (Key, error) {
	if err := ValidateCategory(category); err != nil {
		return Key{}, err
	}
	if id == "" || strings.Contains(id, separator) {
		return Key{}, fmt.Errorf("%w: bad id %q", ErrMalformedKey, id)
	}
	return Key{
		Category: category,
		Day:      DayKey(t.UTC()),
		Minute:   FieldKey(t),
		ID:       id,
	}, nil
}

// String renders the key in its stored form.
func (k Key) String() string {
	return strings.Join([]string{k.Category, k.Day, k.Minute, k.ID}, separator)
}

// Time returns the start of the minute bucket in UTC.
func (k Key) Time() (time.Time, error) {
	return time.Parse(dayLayout+" "+minLayout, strings.TrimPrefix(k.Day, dayPrefix)+" "+k.Minute)
}

// ParseKey reverses Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, separator)
	if len(parts) != 4 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}

	k := Key{Category: parts[0], Day: parts[1], Minute: parts[2], ID: parts[3]}
	if err := ValidateCategory(k.Category); err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, s, err)
	}
	if k.ID == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	if len(k.Day) != dayLength || !strings.HasPrefix(k.Day, dayPrefix) || len(k.Minute) != minuteSize {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	if _, err := k.Time(); err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, s, err)
	}
	return k, nil
}

// DayPattern matches every sample of category on day.
func DayPattern(category string, day time.Time) string {
	return category + separator + DayKey(day) + separator + "*"
}

// MinutePattern matches every sample of category in the minute containing t.
func MinutePattern(category string, t time.Time) string {
	return category + separator + DayKey(t.UTC()) + separator + FieldKey(t) + separator + "*"
}
