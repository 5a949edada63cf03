package domain

import (
	"time"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/clock"
)

// DoseRecord is an append-only fact that a dose was taken. At most one record
// may exist per (medication id, day, time).
type DoseRecord struct {
	MedicationID string
	Day          string
	Time         string
	RecordedAt   time.Time
}

// NewDoseRecord buckets the recorded instant into its local calendar day.
func NewDoseRecord(medicationID, timeOfDay string, recordedAt time.Time) DoseRecord {
	return DoseRecord{
		MedicationID: medicationID,
		Day:          clock.DayKey(recordedAt),
		Time:         timeOfDay,
		RecordedAt:   recordedAt,
	}
}

// Key is the uniqueness key used for duplicate suppression.
func (r DoseRecord) Key() string {
	return r.MedicationID + "|" + r.Day + "|" + r.Time
}
