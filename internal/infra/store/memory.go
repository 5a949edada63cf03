package store

import (
	"context"
	"sync"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

// memoryStore keeps the document in process memory. Used by tests and by
// deployments without redis; same section semantics as the redis store.
type memoryStore struct {
	mu          sync.RWMutex
	medications []*domain.Medication
	records     []domain.DoseRecord
	bleeding    []domain.BleedingRecord
}

func NewMemoryStore() domain.Store {
	return &memoryStore{}
}

func (s *memoryStore) SaveMedication(_ context.Context, med *domain.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *med
	for i, existing := range s.medications {
		if existing.ID == med.ID {
			s.medications[i] = &copied
			return nil
		}
	}
	s.medications = append(s.medications, &copied)
	return nil
}

func (s *memoryStore) GetMedication(_ context.Context, id string) (*domain.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, med := range s.medications {
		if med.ID == id {
			copied := *med
			return &copied, nil
		}
	}
	return nil, domain.ErrMedicationNotFound
}

func (s *memoryStore) ListMedications(_ context.Context) ([]*domain.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meds := make([]*domain.Medication, 0, len(s.medications))
	for _, med := range s.medications {
		copied := *med
		meds = append(meds, &copied)
	}
	return meds, nil
}

func (s *memoryStore) DeleteMedication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.medications[:0]
	for _, med := range s.medications {
		if med.ID != id {
			kept = append(kept, med)
		}
	}
	s.medications = kept
	return nil
}

func (s *memoryStore) AppendDoseRecord(_ context.Context, record domain.DoseRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.Key() == record.Key() {
			return false, nil
		}
	}
	s.records = append(s.records, record)
	return true, nil
}

func (s *memoryStore) ListDoseRecords(_ context.Context) ([]domain.DoseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.DoseRecord, len(s.records))
	copy(records, s.records)
	return records, nil
}

func (s *memoryStore) DeleteDoseRecords(_ context.Context, medicationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, record := range s.records {
		if record.MedicationID != medicationID {
			kept = append(kept, record)
		}
	}
	s.records = kept
	return nil
}

func (s *memoryStore) UpsertBleedingRecord(_ context.Context, record domain.BleedingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.bleeding {
		if existing.Day == record.Day {
			s.bleeding[i] = record
			return nil
		}
	}
	s.bleeding = append(s.bleeding, record)
	return nil
}

func (s *memoryStore) ListBleedingRecords(_ context.Context) ([]domain.BleedingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.BleedingRecord, len(s.bleeding))
	copy(records, s.bleeding)
	return records, nil
}
