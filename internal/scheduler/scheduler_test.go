package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/bus"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

type fakePresenter struct {
	mu         sync.Mutex
	authorized bool
	presentErr error
	presented  []Alert
	revoked    []string
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{authorized: true}
}

func (p *fakePresenter) Authorized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authorized
}

func (p *fakePresenter) Present(_ context.Context, alert Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presentErr != nil {
		return p.presentErr
	}
	p.presented = append(p.presented, alert)
	return nil
}

func (p *fakePresenter) Revoke(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, tag)
}

func (p *fakePresenter) presentedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.presented)
}

func (p *fakePresenter) lastPresented() (Alert, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.presented) == 0 {
		return Alert{}, false
	}
	return p.presented[len(p.presented)-1], true
}

// newTestScheduler pins the clock to the current instant so snooze math is
// exact while armed timers stay far enough out not to fire mid-test.
func newTestScheduler(t *testing.T, presenter AlertPresenter) (*Scheduler, *bus.Bus, time.Time) {
	t.Helper()

	now := time.Now()
	b := bus.New(16, 100*time.Millisecond)
	b.SignalReady()

	s := New(presenter, b, nil, nil, WithClock(func() time.Time { return now }))
	t.Cleanup(s.Shutdown)

	return s, b, now
}

// doseTimesFarFromNow returns HH:MM strings that will not elapse during a
// test run.
func doseTimesFarFromNow(now time.Time, offsets ...time.Duration) []string {
	times := make([]string, 0, len(offsets))
	for _, off := range offsets {
		times = append(times, now.Add(off).Format("15:04"))
	}
	return times
}

func TestSchedule_OneJobPerDoseTime(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	med := domain.Projection{
		MedicationID: "med-1",
		Name:         "Sertraline",
		Dosage:       "25mg",
		Times:        doseTimesFarFromNow(now, 2*time.Hour, 5*time.Hour),
	}

	s.Schedule(context.Background(), med)

	if got := len(s.ScheduledJobs("med-1")); got != 2 {
		t.Errorf("ScheduledJobs() = %d jobs, want 2", got)
	}
}

func TestSchedule_TwiceReplacesInsteadOfDuplicating(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	med := domain.Projection{
		MedicationID: "med-1",
		Name:         "Sertraline",
		Dosage:       "25mg",
		Times:        doseTimesFarFromNow(now, 2*time.Hour, 5*time.Hour),
	}

	s.Schedule(context.Background(), med)
	s.Schedule(context.Background(), med)

	if got := len(s.ScheduledJobs("med-1")); got != 2 {
		t.Errorf("ScheduledJobs() after double schedule = %d jobs, want 2", got)
	}
}

func TestSchedule_UnauthorizedIsSoftNoOp(t *testing.T) {
	presenter := newFakePresenter()
	presenter.authorized = false
	s, _, now := newTestScheduler(t, presenter)

	s.Schedule(context.Background(), domain.Projection{
		MedicationID: "med-1",
		Times:        doseTimesFarFromNow(now, 2*time.Hour),
	})

	if got := s.JobCount(); got != 0 {
		t.Errorf("JobCount() = %d, want 0 (no dangling timers)", got)
	}
}

func TestSchedule_InvalidDoseTimeSkipped(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	s.Schedule(context.Background(), domain.Projection{
		MedicationID: "med-1",
		Times:        append(doseTimesFarFromNow(now, 2*time.Hour), "99:99"),
	})

	if got := len(s.ScheduledJobs("med-1")); got != 1 {
		t.Errorf("ScheduledJobs() = %d, want 1 (invalid time skipped)", got)
	}
}

func TestFire_PresentsAlertWithContract(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{
		MedicationID: "med-1",
		Name:         "Sertraline",
		Dosage:       "25mg",
		Times:        []string{doseTime},
	})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)

	alert, ok := presenter.lastPresented()
	if !ok {
		t.Fatal("no alert presented after fire")
	}
	if alert.Tag != tag {
		t.Errorf("alert tag = %q, want %q", alert.Tag, tag)
	}
	if alert.Body != "Sertraline 25mg" {
		t.Errorf("alert body = %q, want %q", alert.Body, "Sertraline 25mg")
	}
	if len(alert.Actions) != 3 {
		t.Fatalf("alert has %d actions, want 3", len(alert.Actions))
	}
	wantActions := []string{ActionTaken, ActionSnooze, ActionSkip}
	for i, want := range wantActions {
		if alert.Actions[i].ID != want {
			t.Errorf("action[%d] = %q, want %q", i, alert.Actions[i].ID, want)
		}
	}
}

func TestFire_SecondFireIsNoOp(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)
	s.fire(context.Background(), tag)

	if got := presenter.presentedCount(); got != 1 {
		t.Errorf("presented %d alerts, want 1 (fire is exactly-once)", got)
	}
}

func TestCancel_BeforeFireSuppressesAlert(t *testing.T) {
	presenter := newFakePresenter()
	s, b, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.Cancel(context.Background(), "med-1")

	// The timer elapses immediately after cancel: the fire must find the job
	// gone and deliver nothing.
	s.fire(context.Background(), tag)

	if got := presenter.presentedCount(); got != 0 {
		t.Errorf("presented %d alerts after cancel, want 0", got)
	}
	select {
	case msg := <-b.Foreground():
		t.Fatalf("foreground received %T after cancel, want nothing", msg)
	default:
	}
}

func TestCancel_Idempotent(t *testing.T) {
	presenter := newFakePresenter()
	s, _, _ := newTestScheduler(t, presenter)

	s.Cancel(context.Background(), "nobody-home")
	s.Cancel(context.Background(), "nobody-home")
}

func TestCancel_RevokesFiredAlert(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)
	s.Cancel(context.Background(), "med-1")

	presenter.mu.Lock()
	defer presenter.mu.Unlock()
	if len(presenter.revoked) != 1 || presenter.revoked[0] != tag {
		t.Errorf("revoked = %v, want [%q]", presenter.revoked, tag)
	}
}

func TestHandleAction_TakenEmitsDoseTaken(t *testing.T) {
	presenter := newFakePresenter()
	s, b, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)

	if err := s.HandleAction(context.Background(), tag, ActionTaken); err != nil {
		t.Fatalf("HandleAction(taken) error = %v", err)
	}

	select {
	case msg := <-b.Foreground():
		taken, ok := msg.(bus.DoseTaken)
		if !ok {
			t.Fatalf("foreground received %T, want DoseTaken", msg)
		}
		if taken.MedicationID != "med-1" || taken.Time != doseTime {
			t.Errorf("DoseTaken = %+v, want med-1 at %s", taken, doseTime)
		}
		if !taken.At.Equal(now) {
			t.Errorf("DoseTaken.At = %v, want %v", taken.At, now)
		}
	default:
		t.Fatal("no DoseTaken message on foreground channel")
	}

	if got := s.JobCount(); got != 0 {
		t.Errorf("JobCount() = %d after acknowledge, want 0", got)
	}
}

func TestHandleAction_SkipEmitsDoseSkipped(t *testing.T) {
	presenter := newFakePresenter()
	s, b, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)

	if err := s.HandleAction(context.Background(), tag, ActionSkip); err != nil {
		t.Fatalf("HandleAction(skip) error = %v", err)
	}

	select {
	case msg := <-b.Foreground():
		if _, ok := msg.(bus.DoseSkipped); !ok {
			t.Fatalf("foreground received %T, want DoseSkipped", msg)
		}
	default:
		t.Fatal("no DoseSkipped message on foreground channel")
	}
}

func TestHandleAction_SnoozeCreatesTaggedJobTenMinutesOut(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	times := doseTimesFarFromNow(now, 2*time.Hour, 5*time.Hour)
	s.Schedule(context.Background(), domain.Projection{
		MedicationID: "med-1",
		Name:         "Sertraline",
		Dosage:       "25mg",
		Times:        times,
	})

	tag := JobTag("med-1", times[0])
	s.fire(context.Background(), tag)

	if err := s.HandleAction(context.Background(), tag, ActionSnooze); err != nil {
		t.Fatalf("HandleAction(snooze) error = %v", err)
	}

	snoozeTag := SnoozeTag("med-1", times[0])

	s.mu.Lock()
	snoozed, ok := s.jobsByTag[snoozeTag]
	sibling, siblingOK := s.jobsByTag[JobTag("med-1", times[1])]
	s.mu.Unlock()

	if !ok {
		t.Fatalf("no job under snooze tag %q", snoozeTag)
	}
	if want := now.Add(DefaultSnoozeDelay); !snoozed.FireAt.Equal(want) {
		t.Errorf("snoozed FireAt = %v, want exactly %v", snoozed.FireAt, want)
	}
	if !snoozed.Snoozed {
		t.Error("snoozed job not marked as snooze copy")
	}
	if !siblingOK || sibling.State() != StateScheduled {
		t.Error("sibling dose-time job was cancelled by snooze")
	}
}

func TestHandleAction_SecondSnoozeReplacesFirst(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	snoozeTag := SnoozeTag("med-1", doseTime)

	s.fire(context.Background(), tag)
	if err := s.HandleAction(context.Background(), tag, ActionSnooze); err != nil {
		t.Fatalf("first snooze error = %v", err)
	}

	// The snooze copy fires and is snoozed again: still exactly one job
	// under the snooze tag.
	s.fire(context.Background(), snoozeTag)
	if err := s.HandleAction(context.Background(), snoozeTag, ActionSnooze); err != nil {
		t.Fatalf("second snooze error = %v", err)
	}

	if got := s.JobCount(); got != 1 {
		t.Errorf("JobCount() = %d, want 1 (last snooze wins)", got)
	}
}

func TestHandleAction_UnknownTag(t *testing.T) {
	presenter := newFakePresenter()
	s, _, _ := newTestScheduler(t, presenter)

	if err := s.HandleAction(context.Background(), "ghost:09:00", ActionTaken); !errors.Is(err, ErrUnknownAlert) {
		t.Errorf("HandleAction(unknown tag) error = %v, want ErrUnknownAlert", err)
	}
}

func TestHandleAction_ScheduledButNotFired(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	err := s.HandleAction(context.Background(), JobTag("med-1", doseTime), ActionTaken)
	if !errors.Is(err, ErrUnknownAlert) {
		t.Errorf("HandleAction(scheduled job) error = %v, want ErrUnknownAlert", err)
	}
}

func TestHandleAction_UnknownAction(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)

	if err := s.HandleAction(context.Background(), tag, "shrug"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("HandleAction(bad action) error = %v, want ErrUnknownAction", err)
	}
}

func TestExpire_SilentlyDropsFiredJob(t *testing.T) {
	presenter := newFakePresenter()
	s, b, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.fire(context.Background(), tag)
	s.expire(context.Background(), tag)

	if got := s.JobCount(); got != 0 {
		t.Errorf("JobCount() = %d after expiry, want 0", got)
	}
	select {
	case msg := <-b.Foreground():
		t.Fatalf("foreground received %T after expiry, want silence", msg)
	default:
	}
}

func TestExpire_IgnoresScheduledJob(t *testing.T) {
	presenter := newFakePresenter()
	s, _, now := newTestScheduler(t, presenter)

	doseTime := doseTimesFarFromNow(now, 2*time.Hour)[0]
	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	tag := JobTag("med-1", doseTime)
	s.expire(context.Background(), tag)

	if got := len(s.ScheduledJobs("med-1")); got != 1 {
		t.Errorf("ScheduledJobs() = %d, want 1 (expiry only touches fired jobs)", got)
	}
}

func TestRecorder_SeesLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenter := newFakePresenter()
	now := time.Now()
	b := bus.New(16, 100*time.Millisecond)
	b.SignalReady()

	doseTime := now.Add(2 * time.Hour).Format("15:04")
	tag := JobTag("med-1", doseTime)

	outcomeIn := func(state string) gomock.Matcher {
		return gomock.Cond(func(o domain.Outcome) bool {
			return o.Tag == tag && o.State == state
		})
	}

	recorder := domain.NewMockOutcomeRecorder(ctrl)
	gomock.InOrder(
		recorder.EXPECT().RecordOutcome(gomock.Any(), outcomeIn("fired")).Return(nil),
		recorder.EXPECT().RecordOutcome(gomock.Any(), outcomeIn("acknowledged")).Return(nil),
	)

	s := New(presenter, b, recorder, nil, WithClock(func() time.Time { return now }))
	t.Cleanup(s.Shutdown)

	s.Schedule(context.Background(), domain.Projection{MedicationID: "med-1", Times: []string{doseTime}})

	s.fire(context.Background(), tag)
	if err := s.HandleAction(context.Background(), tag, ActionTaken); err != nil {
		t.Fatalf("HandleAction() error = %v", err)
	}
}

func TestRun_ConsumesBusMessages(t *testing.T) {
	presenter := newFakePresenter()
	now := time.Now()
	b := bus.New(16, time.Second)

	s := New(presenter, b, nil, nil, WithClock(func() time.Time { return now }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	doseTime := now.Add(2 * time.Hour).Format("15:04")
	b.SendToBackground(ctx, bus.ScheduleRequest{
		Medication: domain.Projection{MedicationID: "med-1", Times: []string{doseTime}},
	})

	waitFor(t, func() bool { return len(s.ScheduledJobs("med-1")) == 1 })

	b.SendToBackground(ctx, bus.CancelRequest{MedicationID: "med-1"})

	waitFor(t, func() bool { return s.JobCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
