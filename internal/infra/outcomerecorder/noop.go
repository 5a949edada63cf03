package outcomerecorder

import (
	"context"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.OutcomeRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordOutcome(_ context.Context, _ domain.Outcome) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
