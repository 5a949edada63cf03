package scheduler

import "context"

//go:generate mockgen -source=presenter.go -destination=presenter_mock.go -package=scheduler

// Action ids understood by the presentation layer. Every alert carries
// exactly these three.
const (
	ActionTaken  = "taken"
	ActionSnooze = "snooze"
	ActionSkip   = "skip"
)

// AlertAction is one labeled button on an alert.
type AlertAction struct {
	ID    string
	Title string
}

// Alert is what the presentation layer renders. Presenting an alert with a
// tag that is already visible replaces the visible one instead of stacking.
type Alert struct {
	Title        string
	Body         string
	Tag          string
	MedicationID string
	DoseTime     string
	Actions      []AlertAction
}

// AlertPresenter is the host capability that shows alerts to the user. It is
// injected so the scheduler can run without a live host environment.
type AlertPresenter interface {
	// Authorized reports whether alert presentation is currently permitted.
	// When false, scheduling degrades to a soft no-op.
	Authorized() bool

	// Present shows or replaces the alert identified by its tag.
	Present(ctx context.Context, alert Alert) error

	// Revoke removes a presented alert, if still visible. Unknown tags are
	// no-ops.
	Revoke(tag string)
}

func defaultActions() []AlertAction {
	return []AlertAction{
		{ID: ActionTaken, Title: "taken"},
		{ID: ActionSnooze, Title: "snooze (+10 min)"},
		{ID: ActionSkip, Title: "skip"},
	}
}
