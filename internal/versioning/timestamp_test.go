package versioning

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00.250Z", time.Date(2024, 1, 15, 10, 30, 0, 250_000_000, time.UTC)},
		{"2024-01-15T12:30:00+02:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseTimestamp(%q): got=%s want=%s", tc.in, got, tc.want)
		}
		if got.Location() != time.UTC {
			t.Fatalf("ParseTimestamp(%q): location=%s want UTC", tc.in, got.Location())
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "   ", "not-a-date", "2024-13-45", "15/01/2024", "20240115", "1705314600000"} {
		if _, err := ParseTimestamp(bad); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("ParseTimestamp(%q): got=%v want ErrInvalidTimestamp", bad, err)
		}
	}
}

func TestFromUnixMillis(t *testing.T) {
	got, err := FromUnixMillis(1705314600000.9)
	if err != nil {
		t.Fatalf("FromUnixMillis: %v", err)
	}
	ts, err := ParseTimestamp(got)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q): %v", got, err)
	}
	if want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC); !ts.Equal(want) {
		t.Fatalf("round trip: got=%s want=%s", ts, want)
	}

	for _, bad := range []float64{9e15, -9e15, 3e14} {
		if _, err := FromUnixMillis(bad); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("FromUnixMillis(%v): got=%v want ErrInvalidTimestamp", bad, err)
		}
	}
}
