package calendar

import (
	"fmt"
	"time"
)

// TimeOfDay is a local wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// Clock returns the time of day of t in t's own location.
func Clock(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// IsQuietTime reports whether now falls inside the quiet window [from, to).
// When from is after to the window crosses midnight and both bounds are
// inclusive. An empty window (from == to) is never quiet.
func IsQuietTime(now time.Time, from, to TimeOfDay) bool {
	t := Clock(now)
	if from <= to {
		return t >= from && t < to
	}
	return t >= from || t <= to
}
