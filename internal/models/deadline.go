package models

import (
	"strings"
	"time"
)

// deadlineLayouts are tried in order. Date-only values resolve to midnight UTC.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Deadline is a delivery deadline as the source store recorded it. Upstream
// systems write both date-only values and full timestamps, so the raw text is
// kept and normalised on demand.
type Deadline string

// IsZero reports whether no deadline was recorded.
func (d Deadline) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

// Time normalises the deadline to a UTC instant. It returns false when the
// deadline is absent or cannot be parsed.
func (d Deadline) Time() (time.Time, bool) {
	raw := strings.TrimSpace(string(d))
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DeadlineFromTime formats t as a full timestamp deadline.
func DeadlineFromTime(t time.Time) Deadline {
	return Deadline(t.UTC().Format(time.RFC3339))
}
