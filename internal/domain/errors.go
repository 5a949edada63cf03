package domain

import "errors"

var (
	ErrEmptyName          = errors.New("medication name is required")
	ErrNoDoseTimes        = errors.New("at least one dose time is required")
	ErrInvalidDoseTime    = errors.New("dose time must be HH:MM")
	ErrInvalidCategory    = errors.New("unknown medication category")
	ErrInvalidSeverity    = errors.New("unknown bleeding severity")
	ErrInvalidDayKey      = errors.New("day must be YYYY-MM-DD")
	ErrMedicationNotFound = errors.New("medication not found")
)
