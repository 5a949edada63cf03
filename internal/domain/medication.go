package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/clock"
)

// Category classifies a medication for regimen-specific behavior.
// Exactly one category applies per medication.
type Category string

const (
	CategoryNone           Category = "none"
	CategoryCyclicRegimen  Category = "cyclic-regimen"
	CategoryAntidepressant Category = "antidepressant"
	CategoryAntipsychotic  Category = "antipsychotic"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryCyclicRegimen, CategoryAntidepressant, CategoryAntipsychotic:
		return true
	}
	return false
}

// IsCyclic reports whether the medication follows a cyclic regimen with
// break periods gated on the bleeding streak.
func (c Category) IsCyclic() bool {
	return c == CategoryCyclicRegimen
}

// Medication is the source of truth for scheduling. The background scheduler
// only ever sees a Projection of it.
type Medication struct {
	ID        string
	Name      string
	Dosage    string
	Times     []string
	Notes     string
	Category  Category
	CreatedAt time.Time
}

// NewMedication validates user input and builds a medication with a fresh id.
// Dose times are trimmed, deduplicated, and kept in ascending order.
func NewMedication(name, dosage string, times []string, notes string, category Category) (*Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if category == "" {
		category = CategoryNone
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	cleaned := make([]string, 0, len(times))
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, err := clock.ParseTimeOfDay(t); err != nil {
			return nil, ErrInvalidDoseTime
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		return nil, ErrNoDoseTimes
	}
	sort.Strings(cleaned)

	return &Medication{
		ID:        uuid.NewString(),
		Name:      name,
		Dosage:    strings.TrimSpace(dosage),
		Times:     cleaned,
		Notes:     strings.TrimSpace(notes),
		Category:  category,
		CreatedAt: time.Now(),
	}, nil
}

// Projection is the denormalized slice of a medication the background
// scheduler needs to arm timers and render an alert.
type Projection struct {
	MedicationID string
	Name         string
	Dosage       string
	Times        []string
}

func (m *Medication) Project() Projection {
	times := make([]string, len(m.Times))
	copy(times, m.Times)

	return Projection{
		MedicationID: m.ID,
		Name:         m.Name,
		Dosage:       m.Dosage,
		Times:        times,
	}
}
