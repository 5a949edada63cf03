package bus

import (
	"time"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

// Kind identifies a message type on the wire between contexts.
type Kind string

const (
	KindScheduleRequest Kind = "schedule_request"
	KindCancelRequest   Kind = "cancel_request"
	KindDoseTaken       Kind = "dose_taken"
	KindDoseSkipped     Kind = "dose_skipped"
)

// Message is a typed, fire-and-forget payload. Delivery is at-least-once
// across the life of a context; ordering is only guaranteed per tag.
type Message interface {
	Kind() Kind
}

// ScheduleRequest asks the background context to (re)compute the jobs for
// one medication. Carries only the denormalized projection.
type ScheduleRequest struct {
	Medication domain.Projection
}

func (ScheduleRequest) Kind() Kind { return KindScheduleRequest }

// CancelRequest asks the background context to drop every job for the
// medication id.
type CancelRequest struct {
	MedicationID string
}

func (CancelRequest) Kind() Kind { return KindCancelRequest }

// DoseTaken reports that the user acknowledged an alert as taken.
type DoseTaken struct {
	MedicationID string
	Time         string
	At           time.Time
}

func (DoseTaken) Kind() Kind { return KindDoseTaken }

// DoseSkipped reports that the user skipped an alert. No dose record results.
type DoseSkipped struct {
	MedicationID string
	Time         string
	At           time.Time
}

func (DoseSkipped) Kind() Kind { return KindDoseSkipped }
