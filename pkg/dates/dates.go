// Package dates normalizes travel dates that arrive from the upstream APIs in
// several serializations: RFC3339 timestamps, plain YYYY-MM-DD strings, or
// already-localized DD.MM.YYYY strings.
package dates

import (
	"math"
	"strings"
	"time"
)

// UnknownDate is the sentinel returned when a value cannot be resolved to a
// date. Callers must render it as-is rather than leaving the field blank.
const UnknownDate = "unknown date"

// DisplayLayout is the localized display format used across the storefront.
const DisplayLayout = "02.01.2006"

// isoDateLayout matches bare YYYY-MM-DD values.
const isoDateLayout = "2006-01-02"

// Resolver parses and formats travel dates. The zero value is ready to use.
type Resolver struct{}

// NewResolver creates a new date resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Parse attempts to resolve a raw date value to a time.Time.
// Parse order: RFC3339 timestamp, then YYYY-MM-DD. Pre-formatted values
// (containing '.') and garbage are not machine-parseable; ok is false.
func (r *Resolver) Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}

	if t, err := time.Parse(isoDateLayout, raw); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// Display produces the localized display string for a raw date value.
// Values that already look pre-formatted (contain '.') pass through unchanged;
// anything unresolvable degrades to the UnknownDate sentinel. Display never
// fails.
func (r *Resolver) Display(raw string) string {
	if t, ok := r.Parse(raw); ok {
		return t.Format(DisplayLayout)
	}

	if strings.Contains(raw, ".") {
		return raw
	}

	return UnknownDate
}

// Days computes ceil(|end - start| / 24h) between two raw date values.
// ok is false when either endpoint fails to parse; callers fall back to the
// tour's nominal duration.
func (r *Resolver) Days(startRaw, endRaw string) (int, bool) {
	start, okStart := r.Parse(startRaw)
	end, okEnd := r.Parse(endRaw)
	if !okStart || !okEnd {
		return 0, false
	}

	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}

	return int(math.Ceil(diff.Hours() / 24)), true
}

// Nights computes the billable night count between two raw date values,
// falling back to fallbackDays (the tour's nominal duration) when either
// endpoint is unparseable. Nights is never negative.
func (r *Resolver) Nights(startRaw, endRaw string, fallbackDays int) int {
	days, ok := r.Days(startRaw, endRaw)
	if !ok {
		days = fallbackDays
	}

	if days <= 1 {
		return 0
	}

	return days - 1
}
