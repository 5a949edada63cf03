// Package outcomerecorder persists how each notification job ended, for
// offline analysis of delivery quality. Recording is best-effort and never
// fails the scheduling path.
package outcomerecorder

import (
	"context"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.OutcomeRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "delivery outcome recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, delivery outcome recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "delivery outcome recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
		bucket:   cfg.InfluxDBBucket,
		org:      cfg.InfluxDBOrg,
	}, nil
}

func (r *influxDBRecorder) RecordOutcome(ctx context.Context, outcome domain.Outcome) error {
	point := influxdb2.NewPoint(
		"delivery_outcome",
		map[string]string{
			"medication_id": outcome.MedicationID,
			"dose_time":     outcome.DoseTime,
			"state":         outcome.State,
		},
		map[string]any{
			"tag":           outcome.Tag,
			"fired_unix":    outcome.FiredAt.Unix(),
			"resolved_unix": outcome.ResolvedAt.Unix(),
			"latency_ms":    outcome.ResolvedAt.Sub(outcome.FiredAt).Milliseconds(),
		},
		time.Now(),
	)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write delivery outcome to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("tag", outcome.Tag),
			slog.String("state", outcome.State),
		)
	}

	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
