// Package presenter implements alert presentation for hosts without a native
// notification surface. Alerts are rendered to the structured log and tracked
// by tag so replacement and revocation behave like a real notification tray.
package presenter

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/scheduler"
)

type logPresenter struct {
	authorized bool

	mu      sync.Mutex
	visible map[string]scheduler.Alert
}

// Option configures a presenter.
type Option func(*logPresenter)

// WithAuthorization overrides the authorization state. Unauthorized
// presenters make scheduling degrade to a soft no-op.
func WithAuthorization(authorized bool) Option {
	return func(p *logPresenter) {
		p.authorized = authorized
	}
}

func NewLogPresenter(opts ...Option) scheduler.AlertPresenter {
	p := &logPresenter{
		authorized: true,
		visible:    make(map[string]scheduler.Alert),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *logPresenter) Authorized() bool {
	return p.authorized
}

func (p *logPresenter) Present(ctx context.Context, alert scheduler.Alert) error {
	p.mu.Lock()
	_, replaced := p.visible[alert.Tag]
	p.visible[alert.Tag] = alert
	p.mu.Unlock()

	actions := make([]string, 0, len(alert.Actions))
	for _, a := range alert.Actions {
		actions = append(actions, a.ID)
	}

	slog.InfoContext(ctx, "alert presented",
		slog.String("tag", alert.Tag),
		slog.String("title", alert.Title),
		slog.String("body", alert.Body),
		slog.String("actions", strings.Join(actions, ",")),
		slog.Bool("replaced", replaced),
	)
	return nil
}

func (p *logPresenter) Revoke(tag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.visible, tag)
}
