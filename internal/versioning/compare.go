// Package versioning holds the pure version logic: dotted numeric comparison,
// publish-time shape validation, release timestamp parsing and the platform
// download table.
package versioning

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidVersionFormat = errors.New("invalid version format")

// Compare orders two dotted numeric version strings, returning -1, 0 or 1.
//
// Components are compared as integers left to right; a missing component counts
// as 0, so "1.2" equals "1.2.0". Compare is deliberately permissive: a component
// that is not a base-10 integer (including an empty one) also counts as 0.
// Use Validate where malformed input must be rejected.
func Compare(a, b string) int {
	ap := components(a)
	bp := components(b)
	n := max(len(ap), len(bp))
	for i := 0; i < n; i++ {
		av := componentAt(ap, i)
		bv := componentAt(bp, i)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

// Validate reports ErrInvalidVersionFormat unless v is one or more dot-separated
// non-negative integers.
func Validate(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("%w: version is empty", ErrInvalidVersionFormat)
	}
	for i, part := range strings.Split(v, ".") {
		if part == "" {
			return fmt.Errorf("%w: %q has an empty component at position %d", ErrInvalidVersionFormat, v, i)
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return fmt.Errorf("%w: %q has a non-numeric component %q", ErrInvalidVersionFormat, v, part)
			}
		}
	}
	return nil
}

func components(v string) []int64 {
	parts := strings.Split(v, ".")
	out := make([]int64, len(parts))
	for i, p := range parts {
		out[i] = parseComponent(p)
	}
	return out
}

func componentAt(parts []int64, i int) int64 {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

func parseComponent(p string) int64 {
	p = strings.TrimSpace(p)
	if p == "" {
		return 0
	}
	n, err := strconv.ParseInt(p, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			if strings.HasPrefix(p, "-") {
				return math.MinInt64
			}
			return math.MaxInt64
		}
		return 0
	}
	return n
}
