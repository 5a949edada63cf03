// Package reconciler is the foreground execution context: it owns the
// persisted data model, consumes dose events coming back from the background
// scheduler, and keeps the derived aggregates and badge current.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/aggregate"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/bus"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/clock"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

// DefaultAdherenceWindowDays is the UI window; reports use 30.
const DefaultAdherenceWindowDays = 7

type Reconciler struct {
	store  domain.Store
	msgBus *bus.Bus
	badge  BadgeSetter
	now    func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func New(store domain.Store, msgBus *bus.Bus, badge BadgeSetter, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		msgBus: msgBus,
		badge:  badge,
		now:    time.Now,
	}
	if r.badge == nil {
		r.badge = NoopBadge{}
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run consumes dose events from the background context until the context
// ends. Message handling is best-effort: a failed store write is logged and
// repaired by a later resync, never surfaced to the user.
func (r *Reconciler) Run(ctx context.Context) {
	slog.InfoContext(ctx, "foreground reconciler started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.msgBus.Foreground():
			switch m := msg.(type) {
			case bus.DoseTaken:
				r.handleDoseTaken(ctx, m)
			case bus.DoseSkipped:
				r.handleDoseSkipped(ctx, m)
			default:
				slog.WarnContext(ctx, "unexpected message kind in foreground context",
					slog.String("kind", string(msg.Kind())),
				)
			}
		}
	}
}

func (r *Reconciler) handleDoseTaken(ctx context.Context, msg bus.DoseTaken) {
	record := domain.NewDoseRecord(msg.MedicationID, msg.Time, msg.At)

	appended, err := r.store.AppendDoseRecord(ctx, record)
	if err != nil {
		slog.ErrorContext(ctx, "failed to append dose record",
			slog.String("medication_id", msg.MedicationID),
			slog.String("time", msg.Time),
			slog.String("error", err.Error()),
		)
		return
	}
	if !appended {
		// At-least-once delivery: a redelivered DoseTaken is silently
		// deduplicated by the (medication, day, time) key.
		slog.DebugContext(ctx, "duplicate dose record suppressed",
			slog.String("key", record.Key()),
		)
	} else {
		slog.InfoContext(ctx, "dose recorded",
			slog.String("medication_id", msg.MedicationID),
			slog.String("day", record.Day),
			slog.String("time", record.Time),
		)
	}

	r.RefreshBadge(ctx)
}

func (r *Reconciler) handleDoseSkipped(ctx context.Context, msg bus.DoseSkipped) {
	// A skip leaves no dose record; the gap is what the adherence rate sees.
	slog.InfoContext(ctx, "dose skipped",
		slog.String("medication_id", msg.MedicationID),
		slog.String("time", msg.Time),
		slog.Time("at", msg.At),
	)
}

// RegisterMedication persists the medication and asks the background context
// to arm its jobs.
func (r *Reconciler) RegisterMedication(ctx context.Context, med *domain.Medication) error {
	if err := r.store.SaveMedication(ctx, med); err != nil {
		return fmt.Errorf("save medication: %w", err)
	}

	r.msgBus.SendToBackground(ctx, bus.ScheduleRequest{Medication: med.Project()})
	r.RefreshBadge(ctx)
	return nil
}

// RemoveMedication deletes the medication and its dose records, then cancels
// its background jobs.
func (r *Reconciler) RemoveMedication(ctx context.Context, id string) error {
	if _, err := r.store.GetMedication(ctx, id); err != nil {
		return err
	}
	if err := r.store.DeleteMedication(ctx, id); err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	if err := r.store.DeleteDoseRecords(ctx, id); err != nil {
		return fmt.Errorf("delete dose records: %w", err)
	}

	r.msgBus.SendToBackground(ctx, bus.CancelRequest{MedicationID: id})
	r.RefreshBadge(ctx)
	return nil
}

// MarkTaken records a dose from the foreground ("mark taken" button). An
// empty timeOfDay records against the current wall-clock minute.
func (r *Reconciler) MarkTaken(ctx context.Context, medicationID, timeOfDay string) error {
	if _, err := r.store.GetMedication(ctx, medicationID); err != nil {
		return err
	}

	now := r.now()
	if timeOfDay == "" {
		timeOfDay = now.Format("15:04")
	} else if _, err := clock.ParseTimeOfDay(timeOfDay); err != nil {
		return domain.ErrInvalidDoseTime
	}

	record := domain.NewDoseRecord(medicationID, timeOfDay, now)
	appended, err := r.store.AppendDoseRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("append dose record: %w", err)
	}
	if !appended {
		slog.DebugContext(ctx, "duplicate dose record suppressed",
			slog.String("key", record.Key()),
		)
	}

	r.RefreshBadge(ctx)
	return nil
}

// RecordBleeding upserts the day's bleeding level.
func (r *Reconciler) RecordBleeding(ctx context.Context, day string, level domain.Severity) error {
	if !level.Valid() {
		return domain.ErrInvalidSeverity
	}
	if day == "" {
		day = clock.DayKey(r.now())
	} else if _, err := clock.ParseDayKey(day); err != nil {
		return domain.ErrInvalidDayKey
	}

	return r.store.UpsertBleedingRecord(ctx, domain.BleedingRecord{Day: day, Level: level})
}

// Resync resends a ScheduleRequest for every stored medication. Called on
// startup: the channel is unreliable across a background restart, so the
// foreground never assumes background state survived.
func (r *Reconciler) Resync(ctx context.Context) error {
	meds, err := r.store.ListMedications(ctx)
	if err != nil {
		return fmt.Errorf("list medications: %w", err)
	}

	for _, med := range meds {
		r.msgBus.SendToBackground(ctx, bus.ScheduleRequest{Medication: med.Project()})
	}

	slog.InfoContext(ctx, "resynced medications to background context",
		slog.Int("count", len(meds)),
	)

	r.RefreshBadge(ctx)
	return nil
}

// UntakenToday counts (medication, dose time) pairs for today with no
// matching dose record.
func (r *Reconciler) UntakenToday(ctx context.Context) (int, error) {
	meds, err := r.store.ListMedications(ctx)
	if err != nil {
		return 0, fmt.Errorf("list medications: %w", err)
	}
	records, err := r.store.ListDoseRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("list dose records: %w", err)
	}

	today := clock.DayKey(r.now())
	taken := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.Day == today {
			taken[rec.MedicationID+"|"+rec.Time] = struct{}{}
		}
	}

	count := 0
	for _, med := range meds {
		for _, t := range med.Times {
			if _, ok := taken[med.ID+"|"+t]; !ok {
				count++
			}
		}
	}
	return count, nil
}

// RefreshBadge recomputes the unread count and pushes it to the host badge.
// Failures only cost the badge, never the caller.
func (r *Reconciler) RefreshBadge(ctx context.Context) {
	count, err := r.UntakenToday(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to compute badge count",
			slog.String("error", err.Error()),
		)
		return
	}

	if count > 0 {
		r.badge.SetBadgeCount(count)
	} else {
		r.badge.ClearBadge()
	}
}

// AdherenceReport is the per-medication adherence aggregate.
type AdherenceReport struct {
	MedicationID string  `json:"medication_id"`
	WindowDays   int     `json:"window_days"`
	Rate         float64 `json:"rate"`
	Level        string  `json:"level"`
}

// Adherence computes the medication's adherence rate over the last `days`
// calendar days ending today.
func (r *Reconciler) Adherence(ctx context.Context, medicationID string, days int) (*AdherenceReport, error) {
	med, err := r.store.GetMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	records, err := r.store.ListDoseRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dose records: %w", err)
	}

	if days <= 0 {
		days = DefaultAdherenceWindowDays
	}

	rate := aggregate.AdherenceRate(records, medicationID, days, len(med.Times), r.now())
	return &AdherenceReport{
		MedicationID: medicationID,
		WindowDays:   days,
		Rate:         rate,
		Level:        aggregate.Classify(rate),
	}, nil
}

// BleedingStatus is the streak aggregate gating the break-period warning.
type BleedingStatus struct {
	TrailingStreak int  `json:"trailing_streak"`
	LongestStreak  int  `json:"longest_streak"`
	ShouldBreak    bool `json:"should_break"`
}

// Bleeding computes the trailing and longest streaks over the last `days`
// calendar days ending today. The break warning only applies while a
// cyclic-regimen medication is registered; the streaks are always reported.
func (r *Reconciler) Bleeding(ctx context.Context, days int) (*BleedingStatus, error) {
	records, err := r.store.ListBleedingRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bleeding records: %w", err)
	}
	meds, err := r.store.ListMedications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}

	cyclic := false
	for _, med := range meds {
		if med.Category.IsCyclic() {
			cyclic = true
			break
		}
	}

	if days <= 0 {
		days = DefaultAdherenceWindowDays
	}

	today := r.now()
	return &BleedingStatus{
		TrailingStreak: aggregate.TrailingStreak(records, today),
		LongestStreak:  aggregate.LongestStreak(records, days, today),
		ShouldBreak:    cyclic && aggregate.ShouldBreak(records, today),
	}, nil
}

// DailyCounts returns the taken-doses chart series for the last `days` days.
func (r *Reconciler) DailyCounts(ctx context.Context, days int) ([]aggregate.DailyCount, error) {
	records, err := r.store.ListDoseRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dose records: %w", err)
	}

	if days <= 0 {
		days = DefaultAdherenceWindowDays
	}
	return aggregate.DailyTakenCounts(records, days, r.now()), nil
}
