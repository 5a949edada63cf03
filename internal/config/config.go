package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	StoreDriver string

	Redis     *RedisConfig
	Scheduler *SchedulerConfig
	Bus       *BusConfig

	AlertsAuthorized bool
}

const (
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	storeDriver := strings.ToLower(os.Getenv("STORE_DRIVER"))
	if storeDriver == "" {
		storeDriver = StoreDriverRedis
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	schedulerConfig, err := LoadSchedulerConfig()
	if err != nil {
		return nil, err
	}

	busConfig, err := LoadBusConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             port,
		LogLevel:         parseLogLevel(os.Getenv("LOG_LEVEL")),
		StoreDriver:      storeDriver,
		Redis:            redisConfig,
		Scheduler:        schedulerConfig,
		Bus:              busConfig,
		AlertsAuthorized: os.Getenv("ALERTS_AUTHORIZED") != "false",
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
