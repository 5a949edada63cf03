package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=outcome_recorder.go -destination=outcome_recorder_mock.go -package=domain

// Outcome captures how one notification job ended.
type Outcome struct {
	Tag          string
	MedicationID string
	DoseTime     string
	State        string
	FiredAt      time.Time
	ResolvedAt   time.Time
}

// OutcomeRecorder persists delivery outcomes for offline analysis.
// Implementations must never fail the scheduling path.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
	Close() error
}
