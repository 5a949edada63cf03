// Package observability wires the process-wide logger and the OpenTelemetry
// meter provider. Metrics export is optional; without an OTLP endpoint the
// counters stay on the default no-op provider.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/observability/logging"
)

type Config struct {
	ServiceInfo logging.ServiceInfo
	Environment logging.Environment
	LogLevel    slog.Level
}

// Resources holds what Init built and must be shut down on exit.
type Resources struct {
	logger        *slog.Logger
	meterProvider *sdkmetric.MeterProvider
}

func Init(ctx context.Context, cfg Config) (*Resources, error) {
	res := &Resources{
		logger: logging.NewLogger(cfg.Environment, cfg.LogLevel, cfg.ServiceInfo),
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return res, nil
	}

	exporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, err
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceInfo.Name),
			semconv.ServiceVersion(cfg.ServiceInfo.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(rsrc),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(30*time.Second),
		)),
	)
	otel.SetMeterProvider(provider)
	res.meterProvider = provider

	return res, nil
}

func (r *Resources) Logger() *slog.Logger {
	return r.logger
}

func (r *Resources) Shutdown(ctx context.Context) error {
	if r.meterProvider == nil {
		return nil
	}
	return r.meterProvider.Shutdown(ctx)
}
