package logging

import (
	"log/slog"
	"os"
)

// Environment selects the log output format.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// Module labels a log stream with the subsystem that produced it.
type Module string

// ServiceInfo identifies the running service in every log line.
type ServiceInfo struct {
	Name    string
	Version string
}

// NewLogger builds the process-wide slog logger: human-readable text in dev,
// JSON elsewhere.
func NewLogger(env Environment, level slog.Level, info ServiceInfo) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if env == EnvDev {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		slog.String("service", info.Name),
		slog.String("version", info.Version),
	)
}
