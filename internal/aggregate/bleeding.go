package aggregate

import (
	"time"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/clock"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

// BreakStreakDays is the trailing streak length at which a cyclic-regimen
// medication should enter its break period.
const BreakStreakDays = 3

func bleedingByDay(records []domain.BleedingRecord) map[string]domain.Severity {
	byDay := make(map[string]domain.Severity, len(records))
	for _, r := range records {
		byDay[r.Day] = r.Level
	}
	return byDay
}

// TrailingStreak counts the consecutive bleeding days ending today. A missing
// day or a "none" day ends the streak; this is the run that drives the live
// break-period alert.
func TrailingStreak(records []domain.BleedingRecord, today time.Time) int {
	byDay := bleedingByDay(records)

	streak := 0
	for day := clock.DayKey(today); day != ""; day = clock.PrevDayKey(day) {
		level, ok := byDay[day]
		if !ok || !level.Bleeding() {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of adjacent bleeding days anywhere in
// the last `days` calendar days ending today.
func LongestStreak(records []domain.BleedingRecord, days int, today time.Time) int {
	byDay := bleedingByDay(records)

	longest, run := 0, 0
	for _, day := range clock.WindowDays(days, today) {
		level, ok := byDay[day]
		if ok && level.Bleeding() {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// ShouldBreak reports whether the trailing streak ending today has reached
// the break-period threshold.
func ShouldBreak(records []domain.BleedingRecord, today time.Time) bool {
	return TrailingStreak(records, today) >= BreakStreakDays
}
