// Package scheduler is the background execution context: it owns the
// notification job table, arms one timer per dose time, and reconciles user
// actions back to the foreground over the message bus.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/bus"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/clock"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/observability/metrics"
)

const (
	// DefaultSnoozeDelay is how far a snoozed alert is pushed out.
	DefaultSnoozeDelay = 10 * time.Minute

	// DefaultAlertLifetime is how long a fired alert waits for a user action
	// before expiring silently.
	DefaultAlertLifetime = 30 * time.Minute

	alertTitle        = "Time for your medication"
	snoozedAlertTitle = "Time for your medication (reminder)"
)

var (
	ErrUnknownAlert  = errors.New("no fired alert for tag")
	ErrUnknownAction = errors.New("unknown alert action")
)

// Scheduler owns every active notification job. All state is in-memory by
// design: a restarted background context rebuilds its jobs from the resync
// the foreground sends on startup.
type Scheduler struct {
	presenter AlertPresenter
	msgBus    *bus.Bus
	recorder  domain.OutcomeRecorder
	metrics   *metrics.SchedulerMetrics

	snoozeDelay   time.Duration
	alertLifetime time.Duration
	now           func() time.Time

	mu        sync.Mutex
	jobsByTag map[string]*Job
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithSnoozeDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.snoozeDelay = d
		}
	}
}

func WithAlertLifetime(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.alertLifetime = d
		}
	}
}

// WithClock overrides the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	presenter AlertPresenter,
	msgBus *bus.Bus,
	recorder domain.OutcomeRecorder,
	schedulerMetrics *metrics.SchedulerMetrics,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		presenter:     presenter,
		msgBus:        msgBus,
		recorder:      recorder,
		metrics:       schedulerMetrics,
		snoozeDelay:   DefaultSnoozeDelay,
		alertLifetime: DefaultAlertLifetime,
		now:           time.Now,
		jobsByTag:     make(map[string]*Job),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run consumes schedule/cancel requests from the bus until the context ends.
// Signals readiness once consuming, which releases any foreground sends
// waiting on the ready gate.
func (s *Scheduler) Run(ctx context.Context) {
	s.msgBus.SignalReady()

	slog.InfoContext(ctx, "background scheduler started",
		slog.Duration("snooze_delay", s.snoozeDelay),
		slog.Duration("alert_lifetime", s.alertLifetime),
	)

	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case msg := <-s.msgBus.Background():
			switch m := msg.(type) {
			case bus.ScheduleRequest:
				s.Schedule(ctx, m.Medication)
			case bus.CancelRequest:
				s.Cancel(ctx, m.MedicationID)
			default:
				slog.WarnContext(ctx, "unexpected message kind in background context",
					slog.String("kind", string(msg.Kind())),
				)
			}
		}
	}
}

// Schedule replaces the medication's jobs with one Scheduled job per dose
// time. Never blocks and never returns an error: when alert presentation is
// not authorized it degrades to a no-op with no dangling timers.
func (s *Scheduler) Schedule(ctx context.Context, med domain.Projection) {
	if !s.presenter.Authorized() {
		slog.WarnContext(ctx, "alert presentation not authorized, skipping schedule",
			slog.String("medication_id", med.MedicationID),
		)
		return
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-registration replaces: no duplicate Scheduled jobs per
	// (medication, time) pair.
	s.cancelLocked(ctx, med.MedicationID)

	for _, doseTime := range med.Times {
		fireAt, err := clock.NextOccurrence(doseTime, now)
		if err != nil {
			slog.WarnContext(ctx, "invalid dose time, skipping",
				slog.String("medication_id", med.MedicationID),
				slog.String("time", doseTime),
			)
			continue
		}

		s.armLocked(ctx, &Job{
			Tag:          JobTag(med.MedicationID, doseTime),
			MedicationID: med.MedicationID,
			Name:         med.Name,
			Dosage:       med.Dosage,
			DoseTime:     doseTime,
			FireAt:       fireAt,
		})

		slog.DebugContext(ctx, "notification job scheduled",
			slog.String("tag", JobTag(med.MedicationID, doseTime)),
			slog.Time("fire_at", fireAt),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordScheduled(ctx, len(med.Times))
	}
}

// Cancel transitions every job for the medication to Cancelled and releases
// its timers. Idempotent: unknown ids are no-ops.
func (s *Scheduler) Cancel(ctx context.Context, medicationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(ctx, medicationID)
}

func (s *Scheduler) cancelLocked(ctx context.Context, medicationID string) {
	for tag, job := range s.jobsByTag {
		if job.MedicationID != medicationID {
			continue
		}

		wasFired := job.state == StateFired
		job.stopTimers()
		job.state = StateCancelled
		delete(s.jobsByTag, tag)

		if wasFired {
			s.presenter.Revoke(tag)
		}
		if s.metrics != nil {
			s.metrics.RecordTransition(ctx, StateCancelled.String())
		}
	}
}

// armLocked installs the job and its fire timer, replacing any existing job
// with the same tag.
func (s *Scheduler) armLocked(ctx context.Context, job *Job) {
	if prev, ok := s.jobsByTag[job.Tag]; ok {
		prev.stopTimers()
		prev.state = StateCancelled
	}

	job.state = StateScheduled
	s.jobsByTag[job.Tag] = job

	// Timers outlive the scheduling request; detach from its cancellation.
	fireCtx := context.WithoutCancel(ctx)
	tag := job.Tag
	job.timer = time.AfterFunc(time.Until(job.FireAt), func() {
		s.fire(fireCtx, tag)
	})
}

// fire moves a job to Fired and presents its alert. Validity is checked at
// the moment of firing: a job cancelled while its timer was elapsing is
// fully suppressed.
func (s *Scheduler) fire(ctx context.Context, tag string) {
	s.mu.Lock()
	job, ok := s.jobsByTag[tag]
	if !ok || job.state != StateScheduled {
		s.mu.Unlock()
		return
	}

	job.state = StateFired
	job.firedAt = s.now()
	job.timer = nil
	job.expiry = time.AfterFunc(s.alertLifetime, func() {
		s.expire(ctx, tag)
	})

	alert := Alert{
		Title:        alertTitle,
		Body:         job.Name + " " + job.Dosage,
		Tag:          tag,
		MedicationID: job.MedicationID,
		DoseTime:     job.DoseTime,
		Actions:      defaultActions(),
	}
	if job.Snoozed {
		alert.Title = snoozedAlertTitle
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, StateFired.String())
	}
	s.recordOutcome(ctx, job, StateFired)

	if err := s.presenter.Present(ctx, alert); err != nil {
		// The alert is lost but the job stays Fired; it will expire
		// silently, which is the worst case the design allows.
		slog.WarnContext(ctx, "failed to present alert",
			slog.String("tag", tag),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.InfoContext(ctx, "alert fired",
		slog.String("tag", tag),
		slog.String("medication_id", job.MedicationID),
		slog.String("time", job.DoseTime),
	)
}

// HandleAction resolves a fired alert with the user's choice.
func (s *Scheduler) HandleAction(ctx context.Context, tag, action string) error {
	s.mu.Lock()
	job, ok := s.jobsByTag[tag]
	if !ok || job.state != StateFired {
		s.mu.Unlock()
		return ErrUnknownAlert
	}

	switch action {
	case ActionTaken:
		s.resolveLocked(job, StateAcknowledged)
		s.mu.Unlock()

		s.msgBus.SendToForeground(bus.DoseTaken{
			MedicationID: job.MedicationID,
			Time:         job.DoseTime,
			At:           s.now(),
		})
		if s.metrics != nil {
			s.metrics.RecordMessage(ctx, string(bus.KindDoseTaken))
		}
		s.finishResolved(ctx, job, StateAcknowledged)
		return nil

	case ActionSkip:
		s.resolveLocked(job, StateSkipped)
		s.mu.Unlock()

		s.msgBus.SendToForeground(bus.DoseSkipped{
			MedicationID: job.MedicationID,
			Time:         job.DoseTime,
			At:           s.now(),
		})
		if s.metrics != nil {
			s.metrics.RecordMessage(ctx, string(bus.KindDoseSkipped))
		}
		s.finishResolved(ctx, job, StateSkipped)
		return nil

	case ActionSnooze:
		s.resolveLocked(job, StateSnoozed)

		// One new Scheduled job under the snooze tag; a prior snooze job for
		// the same pair is replaced. Sibling dose-time jobs are untouched.
		snoozed := &Job{
			Tag:          SnoozeTag(job.MedicationID, job.DoseTime),
			MedicationID: job.MedicationID,
			Name:         job.Name,
			Dosage:       job.Dosage,
			DoseTime:     job.DoseTime,
			Snoozed:      true,
			FireAt:       s.now().Add(s.snoozeDelay),
		}
		s.armLocked(ctx, snoozed)
		s.mu.Unlock()

		s.finishResolved(ctx, job, StateSnoozed)
		slog.InfoContext(ctx, "alert snoozed",
			slog.String("tag", tag),
			slog.Time("refire_at", snoozed.FireAt),
		)
		return nil

	default:
		s.mu.Unlock()
		return ErrUnknownAction
	}
}

// resolveLocked takes a Fired job to a terminal state and drops it from the
// table. Caller holds the lock.
func (s *Scheduler) resolveLocked(job *Job, state State) {
	job.stopTimers()
	job.state = state
	delete(s.jobsByTag, job.Tag)
}

func (s *Scheduler) finishResolved(ctx context.Context, job *Job, state State) {
	s.presenter.Revoke(job.Tag)
	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, state.String())
	}
	s.recordOutcome(ctx, job, state)
}

// expire silently drops a fired job the user never acted on. No message is
// emitted; the dose simply goes unrecorded.
func (s *Scheduler) expire(ctx context.Context, tag string) {
	s.mu.Lock()
	job, ok := s.jobsByTag[tag]
	if !ok || job.state != StateFired {
		s.mu.Unlock()
		return
	}
	s.resolveLocked(job, StateExpired)
	s.mu.Unlock()

	s.presenter.Revoke(tag)
	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, StateExpired.String())
	}
	s.recordOutcome(ctx, job, StateExpired)

	slog.DebugContext(ctx, "alert expired without interaction",
		slog.String("tag", tag),
	)
}

func (s *Scheduler) recordOutcome(ctx context.Context, job *Job, state State) {
	if s.recorder == nil {
		return
	}

	outcome := domain.Outcome{
		Tag:          job.Tag,
		MedicationID: job.MedicationID,
		DoseTime:     job.DoseTime,
		State:        state.String(),
		FiredAt:      job.firedAt,
		ResolvedAt:   s.now(),
	}
	if err := s.recorder.RecordOutcome(ctx, outcome); err != nil {
		slog.WarnContext(ctx, "failed to record delivery outcome",
			slog.String("tag", job.Tag),
			slog.String("error", err.Error()),
		)
	}
}

// ScheduledJobs returns the tags of non-terminal jobs for a medication,
// used by tests and the readiness probe.
func (s *Scheduler) ScheduledJobs(medicationID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tags []string
	for tag, job := range s.jobsByTag {
		if job.MedicationID == medicationID && !job.state.Terminal() {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JobCount returns the number of live jobs across all medications.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobsByTag)
}

// Shutdown releases every timer. Jobs are not persisted; the next start
// rebuilds them from the foreground's resync.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tag, job := range s.jobsByTag {
		job.stopTimers()
		job.state = StateCancelled
		delete(s.jobsByTag, tag)
	}
}
