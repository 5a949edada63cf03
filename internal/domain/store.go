package domain

import "context"

//go:generate mockgen -source=store.go -destination=store_mock.go -package=domain

// Store is the persisted, section-keyed document shared by the foreground and
// background contexts. Each mutation rewrites its own section atomically;
// concurrent writers to the same section are last-write-wins.
type Store interface {
	SaveMedication(ctx context.Context, med *Medication) error
	GetMedication(ctx context.Context, id string) (*Medication, error)
	ListMedications(ctx context.Context) ([]*Medication, error)
	DeleteMedication(ctx context.Context, id string) error

	// AppendDoseRecord appends the record unless one already exists for the
	// same (medication id, day, time). It reports whether the record was
	// actually appended.
	AppendDoseRecord(ctx context.Context, record DoseRecord) (bool, error)
	ListDoseRecords(ctx context.Context) ([]DoseRecord, error)
	DeleteDoseRecords(ctx context.Context, medicationID string) error

	UpsertBleedingRecord(ctx context.Context, record BleedingRecord) error
	ListBleedingRecords(ctx context.Context) ([]BleedingRecord, error)
}
