package scheduler

import (
	"time"
)

// State is the lifecycle position of one notification job.
//
//	Scheduled -> Fired -> {Acknowledged, Snoozed, Skipped, Expired}
//
// Cancelled is reachable from Scheduled and Fired when the medication is
// removed. All states other than Scheduled and Fired are terminal.
type State string

const (
	StateScheduled    State = "scheduled"
	StateFired        State = "fired"
	StateAcknowledged State = "acknowledged"
	StateSnoozed      State = "snoozed"
	StateSkipped      State = "skipped"
	StateExpired      State = "expired"
	StateCancelled    State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transition can leave this state.
func (s State) Terminal() bool {
	return s != StateScheduled && s != StateFired
}

// Job is one scheduled alert instance. Jobs live only in the background
// context's memory; on restart they are re-derived from the medication list.
type Job struct {
	Tag          string
	MedicationID string
	Name         string
	Dosage       string
	DoseTime     string
	Snoozed      bool
	FireAt       time.Time

	state   State
	firedAt time.Time
	timer   *time.Timer
	expiry  *time.Timer
}

// State returns the job's current lifecycle state. Only safe to call while
// holding the scheduler's lock; exposed for tests and introspection.
func (j *Job) State() State {
	return j.state
}

// JobTag builds the stable tag for a (medication, dose time) pair.
func JobTag(medicationID, doseTime string) string {
	return medicationID + ":" + doseTime
}

// SnoozeTag builds the tag for the rescheduled copy of a job. A snooze of an
// already-snoozed alert maps onto the same tag, so the last snooze wins.
func SnoozeTag(medicationID, doseTime string) string {
	return JobTag(medicationID, doseTime) + ":snooze"
}

func (j *Job) stopTimers() {
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	if j.expiry != nil {
		j.expiry.Stop()
		j.expiry = nil
	}
}
