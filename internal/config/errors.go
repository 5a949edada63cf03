package config

import "errors"

var (
	ErrRedisAddrMissing     = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB       = errors.New("REDIS_DB must be a valid integer")
	ErrInvalidSnoozeDelay   = errors.New("SCHEDULER_SNOOZE_DELAY must be a positive duration")
	ErrInvalidAlertLifetime = errors.New("SCHEDULER_ALERT_LIFETIME must be a positive duration")
	ErrInvalidBusBuffer     = errors.New("BUS_BUFFER must be a positive integer")
	ErrInvalidBusReadyGrace = errors.New("BUS_READY_GRACE must be a positive duration")
	ErrUnknownStoreDriver   = errors.New("STORE_DRIVER must be \"redis\" or \"memory\"")
)
