package config

import (
	"os"
	"strconv"
	"time"
)

const (
	busBufferEnv     = "BUS_BUFFER"
	busReadyGraceEnv = "BUS_READY_GRACE"
	busDisabledEnv   = "BUS_DISABLED"

	defaultBusBuffer     = 64
	defaultBusReadyGrace = 2 * time.Second
)

type BusConfig struct {
	Buffer     int
	ReadyGrace time.Duration

	// Disabled models a host without a background execution context; every
	// cross-context send becomes a silent no-op.
	Disabled bool
}

func LoadBusConfig() (*BusConfig, error) {
	buffer := defaultBusBuffer
	if raw := os.Getenv(busBufferEnv); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidBusBuffer
		}
		buffer = parsed
	}

	readyGrace := defaultBusReadyGrace
	if raw := os.Getenv(busReadyGraceEnv); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidBusReadyGrace
		}
		readyGrace = parsed
	}

	return &BusConfig{
		Buffer:     buffer,
		ReadyGrace: readyGrace,
		Disabled:   os.Getenv(busDisabledEnv) == "true",
	}, nil
}
