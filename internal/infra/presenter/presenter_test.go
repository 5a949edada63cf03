package presenter

import (
	"context"
	"testing"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/scheduler"
)

func TestLogPresenter_ReplacesByTag(t *testing.T) {
	ctx := context.Background()
	p := NewLogPresenter().(*logPresenter)

	alert := scheduler.Alert{Tag: "med-1:09:00", Title: "Time for your medication"}
	if err := p.Present(ctx, alert); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if err := p.Present(ctx, alert); err != nil {
		t.Fatalf("Present() error = %v", err)
	}

	if len(p.visible) != 1 {
		t.Errorf("visible alerts = %d, want 1 (same tag replaces)", len(p.visible))
	}
}

func TestLogPresenter_RevokeUnknownTag(t *testing.T) {
	p := NewLogPresenter().(*logPresenter)

	p.Revoke("never-presented")

	if len(p.visible) != 0 {
		t.Errorf("visible alerts = %d, want 0", len(p.visible))
	}
}

func TestLogPresenter_Authorization(t *testing.T) {
	if !NewLogPresenter().Authorized() {
		t.Error("default presenter should be authorized")
	}
	if NewLogPresenter(WithAuthorization(false)).Authorized() {
		t.Error("WithAuthorization(false) presenter should not be authorized")
	}
}
