package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const schedulerMeterName = "notification.scheduler"

// SchedulerMetrics counts notification job activity in the background
// context. A nil *SchedulerMetrics is safe to pass; callers nil-check.
type SchedulerMetrics struct {
	jobsScheduled  metric.Int64Counter
	jobTransitions metric.Int64Counter
	messagesSent   metric.Int64Counter
}

func NewSchedulerMetrics() (*SchedulerMetrics, error) {
	meter := otel.Meter(schedulerMeterName)

	jobsScheduled, err := meter.Int64Counter(
		"notification_jobs_scheduled_total",
		metric.WithDescription("Total number of notification jobs armed"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	jobTransitions, err := meter.Int64Counter(
		"notification_job_transitions_total",
		metric.WithDescription("Notification job state transitions by resulting state"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	messagesSent, err := meter.Int64Counter(
		"notification_messages_total",
		metric.WithDescription("Cross-context messages by kind"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerMetrics{
		jobsScheduled:  jobsScheduled,
		jobTransitions: jobTransitions,
		messagesSent:   messagesSent,
	}, nil
}

func (m *SchedulerMetrics) RecordScheduled(ctx context.Context, count int) {
	m.jobsScheduled.Add(ctx, int64(count))
}

func (m *SchedulerMetrics) RecordTransition(ctx context.Context, state string) {
	m.jobTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", state)),
	)
}

func (m *SchedulerMetrics) RecordMessage(ctx context.Context, kind string) {
	m.messagesSent.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
