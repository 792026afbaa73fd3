package aggregation

import (
	"fmt"
	"time"
)

// WindowSpec represents a parsed and validated window size.
type WindowSpec struct {
	Size time.Duration
}

// ParseWindowSize parses a duration string into a WindowSpec.
// Supports Go duration syntax (e.g., "10s", "2h") plus "Xd" for days and
// "Xw" for weeks. Used for the per-granularity lookback margins.
func ParseWindowSize(s string) (WindowSpec, error) {
	if s == "" {
		return WindowSpec{}, fmt.Errorf("window size must not be empty")
	}

	// "d" and "w" suffixes are not supported by time.ParseDuration.
	if len(s) > 1 && s[len(s)-1] == 'w' {
		var weeks int
		if _, err := fmt.Sscanf(s, "%dw", &weeks); err != nil {
			return WindowSpec{}, fmt.Errorf("invalid window size %q: %w", s, err)
		}
		if weeks <= 0 {
			return WindowSpec{}, fmt.Errorf("window size must be positive, got %q", s)
		}
		return WindowSpec{Size: time.Duration(weeks) * 7 * 24 * time.Hour}, nil
	}

	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil {
			return WindowSpec{}, fmt.Errorf("invalid window size %q: %w", s, err)
		}
		if days <= 0 {
			return WindowSpec{}, fmt.Errorf("window size must be positive, got %q", s)
		}
		return WindowSpec{Size: time.Duration(days) * 24 * time.Hour}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return WindowSpec{}, fmt.Errorf("invalid window size %q: %w", s, err)
	}
	if d <= 0 {
		return WindowSpec{}, fmt.Errorf("window size must be positive, got %q", s)
	}
	return WindowSpec{Size: d}, nil
}

// BucketFor truncates a timestamp to its bucket boundaries for a granularity.
// The computation happens in t's own location: an hour bucket near midnight in
// America/Montreal is not the same wall of time as one in UTC, and a DST-switch
// day is honored as 23 or 25 real hours. The returned end is the start of the
// next bucket (half-open interval [start, end)).
//
// Weeks start on Monday (ISO 8601).
func BucketFor(t time.Time, g Granularity) (start, end time.Time) {
	loc := t.Location()
	year, month, day := t.Date()

	switch g {
	case GranularityHour:
		start = time.Date(year, month, day, t.Hour(), 0, 0, 0, loc)
		end = start.Add(time.Hour)
	case GranularityDay:
		start = time.Date(year, month, day, 0, 0, 0, 0, loc)
		end = time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	case GranularityWeek:
		daysSinceMonday := (int(t.Weekday()) + 6) % 7
		start = time.Date(year, month, day-daysSinceMonday, 0, 0, 0, 0, loc)
		end = time.Date(year, month, day-daysSinceMonday+7, 0, 0, 0, 0, loc)
	case GranularityMonth:
		start = time.Date(year, month, 1, 0, 0, 0, 0, loc)
		end = time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	case GranularityYear:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end = time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		// Callers only reach this with a parsed Granularity; fall back to the
		// finest bucket rather than panic on corrupt input.
		start = time.Date(year, month, day, t.Hour(), 0, 0, 0, loc)
		end = start.Add(time.Hour)
	}
	return start, end
}
