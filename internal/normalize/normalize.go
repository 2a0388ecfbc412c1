// Package normalize canonicalizes loosely-typed values coming off the
// persistence service wire. The service stores optional columns as SQL NULL
// and returns dates in several shapes (plain date, ISO timestamp, SQL
// datetime), so every scalar passes through here exactly once before it is
// compared or edited. Every function is total: bad input degrades to the
// zero value, never to an error.
package normalize

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the canonical date form used across the draft and the wire.
const DateLayout = "2006-01-02"

// Number maps an absent value to zero.
func Number(v *float64) float64 {
	if v == nil {
		return 0
	}
	return NumberValue(*v)
}

// NumberValue maps NaN and infinities to zero. Finite values pass through
// without rounding.
func NumberValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// String maps an absent value to the empty string.
func String(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// TrimmedString maps an absent value to the empty string and trims whitespace.
func TrimmedString(v *string) string {
	return strings.TrimSpace(String(v))
}

// Boolean maps an absent value to false.
func Boolean(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}

// Date canonicalizes a date string to YYYY-MM-DD. An ISO timestamp
// ("2024-03-05T10:00:00Z") or SQL datetime ("2024-03-05 10:00:00") is cut at
// the separator; the prefix counts only if it is itself a valid date.
// Anything unparseable is treated as absent, not as an error.
func Date(v string) string {
	if v == "" {
		return ""
	}
	candidate := v
	if i := strings.IndexAny(v, "T "); i >= 0 {
		candidate = v[:i]
	}
	if _, err := time.Parse(DateLayout, candidate); err != nil {
		return ""
	}
	return candidate
}

// DatePtr is Date over a nullable wire value.
func DatePtr(v *string) string {
	if v == nil {
		return ""
	}
	return Date(*v)
}

// WireDate converts a canonical date back to the wire shape. The service
// distinguishes "explicitly cleared" from "never set" only via NULL, so an
// empty date goes out as nil rather than "".
func WireDate(v string) *string {
	d := Date(v)
	if d == "" {
		return nil
	}
	return &d
}
