// Package store persists the shared document both execution contexts read
// and write. The document is section-keyed; every mutation rewrites one
// section atomically, and concurrent writers to a section are
// last-write-wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

const (
	medicationsKey = "medapp:medications"
	recordsKey     = "medapp:records"
	bleedingKey    = "medapp:bleedingRecords"
)

type medicationRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Times     []string  `json:"times"`
	Notes     string    `json:"notes,omitempty"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type doseRecord struct {
	MedicationID string    `json:"medication_id"`
	Day          string    `json:"day"`
	Time         string    `json:"time"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type bleedingRecord struct {
	Day   string `json:"day"`
	Level string `json:"level"`
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) domain.Store {
	return &redisStore{client: client}
}

func loadSection[T any](ctx context.Context, client *redis.Client, key string) ([]T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, ErrInvalidSectionData
	}
	return items, nil
}

func saveSection[T any](ctx context.Context, client *redis.Client, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return ErrInvalidSectionData
	}
	return client.Set(ctx, key, data, 0).Err()
}

func (s *redisStore) SaveMedication(ctx context.Context, med *domain.Medication) error {
	items, err := loadSection[medicationRecord](ctx, s.client, medicationsKey)
	if err != nil {
		return err
	}

	record := medicationRecord{
		ID:        med.ID,
		Name:      med.Name,
		Dosage:    med.Dosage,
		Times:     med.Times,
		Notes:     med.Notes,
		Category:  med.Category.String(),
		CreatedAt: med.CreatedAt,
	}

	replaced := false
	for i, existing := range items {
		if existing.ID == med.ID {
			items[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, record)
	}

	return saveSection(ctx, s.client, medicationsKey, items)
}

func (s *redisStore) GetMedication(ctx context.Context, id string) (*domain.Medication, error) {
	items, err := loadSection[medicationRecord](ctx, s.client, medicationsKey)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.ID == id {
			return toMedication(item), nil
		}
	}
	return nil, domain.ErrMedicationNotFound
}

func (s *redisStore) ListMedications(ctx context.Context) ([]*domain.Medication, error) {
	items, err := loadSection[medicationRecord](ctx, s.client, medicationsKey)
	if err != nil {
		return nil, err
	}

	meds := make([]*domain.Medication, 0, len(items))
	for _, item := range items {
		meds = append(meds, toMedication(item))
	}
	return meds, nil
}

func (s *redisStore) DeleteMedication(ctx context.Context, id string) error {
	items, err := loadSection[medicationRecord](ctx, s.client, medicationsKey)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	return saveSection(ctx, s.client, medicationsKey, kept)
}

func (s *redisStore) AppendDoseRecord(ctx context.Context, record domain.DoseRecord) (bool, error) {
	items, err := loadSection[doseRecord](ctx, s.client, recordsKey)
	if err != nil {
		return false, err
	}

	for _, existing := range items {
		if existing.MedicationID == record.MedicationID &&
			existing.Day == record.Day &&
			existing.Time == record.Time {
			return false, nil
		}
	}

	items = append(items, doseRecord{
		MedicationID: record.MedicationID,
		Day:          record.Day,
		Time:         record.Time,
		RecordedAt:   record.RecordedAt,
	})

	if err := saveSection(ctx, s.client, recordsKey, items); err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisStore) ListDoseRecords(ctx context.Context) ([]domain.DoseRecord, error) {
	items, err := loadSection[doseRecord](ctx, s.client, recordsKey)
	if err != nil {
		return nil, err
	}

	records := make([]domain.DoseRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.DoseRecord{
			MedicationID: item.MedicationID,
			Day:          item.Day,
			Time:         item.Time,
			RecordedAt:   item.RecordedAt,
		})
	}
	return records, nil
}

func (s *redisStore) DeleteDoseRecords(ctx context.Context, medicationID string) error {
	items, err := loadSection[doseRecord](ctx, s.client, recordsKey)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.MedicationID != medicationID {
			kept = append(kept, item)
		}
	}
	return saveSection(ctx, s.client, recordsKey, kept)
}

func (s *redisStore) UpsertBleedingRecord(ctx context.Context, record domain.BleedingRecord) error {
	items, err := loadSection[bleedingRecord](ctx, s.client, bleedingKey)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range items {
		if existing.Day == record.Day {
			items[i] = bleedingRecord{Day: record.Day, Level: record.Level.String()}
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, bleedingRecord{Day: record.Day, Level: record.Level.String()})
	}

	return saveSection(ctx, s.client, bleedingKey, items)
}

func (s *redisStore) ListBleedingRecords(ctx context.Context) ([]domain.BleedingRecord, error) {
	items, err := loadSection[bleedingRecord](ctx, s.client, bleedingKey)
	if err != nil {
		return nil, err
	}

	records := make([]domain.BleedingRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.BleedingRecord{
			Day:   item.Day,
			Level: domain.Severity(item.Level),
		})
	}
	return records, nil
}

func toMedication(item medicationRecord) *domain.Medication {
	return &domain.Medication{
		ID:        item.ID,
		Name:      item.Name,
		Dosage:    item.Dosage,
		Times:     item.Times,
		Notes:     item.Notes,
		Category:  domain.Category(item.Category),
		CreatedAt: item.CreatedAt,
	}
}
