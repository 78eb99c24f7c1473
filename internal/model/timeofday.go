package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a naive wall-clock time stored as minutes since midnight.
// The clinic operates in a single timezone, so no zone handling is done.
type TimeOfDay int

// ParseClock parses a "HH:MM" string into a TimeOfDay.
func ParseClock(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}

	return TimeOfDay(hour*60 + minute), nil
}

// MustClock is ParseClock that panics on malformed input. For tests and
// compile-time constants only.
func MustClock(s string) TimeOfDay {
	t, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock formats the time as "HH:MM".
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time shifted forward by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// String implements fmt.Stringer.
func (t TimeOfDay) String() string { return t.Clock() }

// MarshalJSON encodes the time as a "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Clock() + `"`), nil
}

// UnmarshalJSON accepts a "HH:MM" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// WeekdayIndex maps a date to the clinic's weekday convention:
// 0 = Monday ... 6 = Sunday.
func WeekdayIndex(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 6 // Sunday
	}
	return wd - 1
}

// DateOnly truncates a timestamp to midnight, keeping the location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
