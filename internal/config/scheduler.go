package config

import (
	"os"
	"time"
)

const (
	snoozeDelayEnv   = "SCHEDULER_SNOOZE_DELAY"
	alertLifetimeEnv = "SCHEDULER_ALERT_LIFETIME"

	defaultSnoozeDelay   = 10 * time.Minute
	defaultAlertLifetime = 30 * time.Minute
)

type SchedulerConfig struct {
	SnoozeDelay   time.Duration
	AlertLifetime time.Duration
}

func LoadSchedulerConfig() (*SchedulerConfig, error) {
	snoozeDelay := defaultSnoozeDelay
	if raw := os.Getenv(snoozeDelayEnv); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidSnoozeDelay
		}
		snoozeDelay = parsed
	}

	alertLifetime := defaultAlertLifetime
	if raw := os.Getenv(alertLifetimeEnv); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidAlertLifetime
		}
		alertLifetime = parsed
	}

	return &SchedulerConfig{
		SnoozeDelay:   snoozeDelay,
		AlertLifetime: alertLifetime,
	}, nil
}
