package versioning

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp accepts ISO-8601 style dates (year, year-month, date, with or
// without time and zone) and RFC 1123 dates. Zone-less input is read as UTC.
// Digit strings are years, never epoch offsets; see FromUnixMillis.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// FromUnixMillis renders a numeric epoch-millisecond timestamp in a form
// ParseTimestamp accepts. Fractional milliseconds are truncated.
func FromUnixMillis(ms float64) (string, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxUnixMillis {
		return "", fmt.Errorf("%w: %v", ErrInvalidTimestamp, ms)
	}
	t := time.UnixMilli(int64(ms)).UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return "", fmt.Errorf("%w: %v out of range", ErrInvalidTimestamp, ms)
	}
	return t.Format(time.RFC3339Nano), nil
}

// maxUnixMillis is the largest offset a date can carry (±100,000,000 days).
const maxUnixMillis = 8.64e15
