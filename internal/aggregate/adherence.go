// Package aggregate derives the safety-relevant aggregates consumed by the
// UI layer: dose adherence over a day window and the consecutive-bleeding
// streak that gates a break period.
package aggregate

import (
	"fmt"
	"time"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/clock"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

// Adherence report thresholds, matching the UI color coding.
const (
	GoodThreshold = 0.8
	FairThreshold = 0.6
)

// AdherenceRate returns takenCount / (days * dosesPerDay) over the window of
// the last `days` calendar days ending today. Clamped to 1.0 when recorded
// doses exceed the expected count (duplicate-record defense); 0 when nothing
// is expected.
func AdherenceRate(records []domain.DoseRecord, medicationID string, days, dosesPerDay int, today time.Time) float64 {
	expected := days * dosesPerDay
	if expected <= 0 {
		return 0
	}

	window := make(map[string]struct{}, days)
	for _, day := range clock.WindowDays(days, today) {
		window[day] = struct{}{}
	}

	taken := 0
	for _, r := range records {
		if r.MedicationID != medicationID {
			continue
		}
		if _, ok := window[r.Day]; ok {
			taken++
		}
	}

	rate := float64(taken) / float64(expected)
	if rate > 1.0 {
		return 1.0
	}
	return rate
}

// Classify maps an adherence rate onto the report levels.
func Classify(rate float64) string {
	switch {
	case rate >= GoodThreshold:
		return "good"
	case rate >= FairThreshold:
		return "fair"
	default:
		return "poor"
	}
}

// DailyCount is one day of the taken-doses chart series.
type DailyCount struct {
	Day   string `json:"day"`
	Label string `json:"label"`
	Taken int    `json:"taken"`
}

// DailyTakenCounts builds the per-day taken counts for the last `days`
// calendar days ending today, oldest first.
func DailyTakenCounts(records []domain.DoseRecord, days int, today time.Time) []DailyCount {
	byDay := make(map[string]int)
	for _, r := range records {
		byDay[r.Day]++
	}

	window := clock.WindowDays(days, today)
	counts := make([]DailyCount, 0, len(window))
	for _, day := range window {
		label := day
		if t, err := clock.ParseDayKey(day); err == nil {
			label = fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
		}
		counts = append(counts, DailyCount{Day: day, Label: label, Taken: byDay[day]})
	}
	return counts
}
