package pipeline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// parseDate reads a record date value. Unparseable values report false
// so callers can treat them as non-matching.
func parseDate(v interface{}, loc *time.Location) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, !val.IsZero()
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// startOfDay truncates t to midnight of its calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// isDateKey reports whether a field name follows a date naming convention.
func isDateKey(key string) bool {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	lower := strings.ToLower(key)
	switch {
	case lower == "date":
		return true
	case strings.HasSuffix(key, "Date"), strings.HasSuffix(lower, "_date"):
		return true
	case strings.HasSuffix(key, "At"), strings.HasSuffix(lower, "_at"):
		return true
	}
	return false
}
