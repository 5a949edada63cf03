// Package clock holds the pure calendar helpers shared by both execution
// contexts: day bucketing, windowing, and next-occurrence math for HH:MM
// dose times.
package clock

import (
	"errors"
	"fmt"
	"time"
)

const dayKeyLayout = "2006-01-02"

var ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM")

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses a 24h "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}

	var hour, minute int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, ErrInvalidTimeOfDay
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// NextOccurrence returns the next strictly-future instant at the given
// wall-clock time, in now's location: today if the time has not yet passed,
// otherwise tomorrow.
func NextOccurrence(timeOfDay string, now time.Time) (time.Time, error) {
	tod, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next, nil
}

// DayKey buckets an instant into its local calendar day, insensitive to
// time of day.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// ParseDayKey is the inverse of DayKey.
func ParseDayKey(key string) (time.Time, error) {
	return time.Parse(dayKeyLayout, key)
}

// WindowDays returns the last n day keys ending at (and including) today,
// oldest first.
func WindowDays(n int, today time.Time) []string {
	if n <= 0 {
		return nil
	}

	days := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, DayKey(today.AddDate(0, 0, -i)))
	}
	return days
}

// PrevDayKey returns the day key for the calendar day before the given key.
// Invalid keys yield an empty string.
func PrevDayKey(key string) string {
	t, err := ParseDayKey(key)
	if err != nil {
		return ""
	}
	return DayKey(t.AddDate(0, 0, -1))
}
