package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/bus"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/config"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/handler"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/health"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/infra/outcomerecorder"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/infra/presenter"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/infra/store"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/observability"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/observability/logging"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/observability/metrics"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/observability/middleware"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/reconciler"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/scheduler"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}
	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	schedulerMetrics, err := metrics.NewSchedulerMetrics()
	if err != nil {
		slog.Error("failed to initialize scheduler metrics", slog.String("error", err.Error()))
		return 1
	}

	recorderCfg := outcomerecorder.LoadConfig()
	recorder, err := outcomerecorder.NewRecorder(ctx, recorderCfg)
	if err != nil {
		slog.Error("failed to initialize delivery outcome recorder", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close delivery outcome recorder", slog.String("error", err.Error()))
		}
	}()

	dataStore, redisClient, err := initStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize store", slog.String("error", err.Error()))
		return 1
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
		}()
	}

	var msgBus *bus.Bus
	if cfg.Bus.Disabled {
		slog.Warn("background context disabled, reminders degrade to foreground-only")
		msgBus = bus.NewDisabled()
	} else {
		msgBus = bus.New(cfg.Bus.Buffer, cfg.Bus.ReadyGrace)
	}
	defer msgBus.Close()

	alertPresenter := presenter.NewLogPresenter(
		presenter.WithAuthorization(cfg.AlertsAuthorized),
	)

	sched := scheduler.New(
		alertPresenter,
		msgBus,
		recorder,
		schedulerMetrics,
		scheduler.WithSnoozeDelay(cfg.Scheduler.SnoozeDelay),
		scheduler.WithAlertLifetime(cfg.Scheduler.AlertLifetime),
	)
	rec := reconciler.New(dataStore, msgBus, reconciler.NoopBadge{})

	if !cfg.Bus.Disabled {
		go sched.Run(ctx)
	}
	go rec.Run(ctx)

	// The background context keeps no durable state; replay every stored
	// medication so its job table matches the store.
	if err := rec.Resync(ctx); err != nil {
		slog.Error("failed to resync medications", slog.String("error", err.Error()))
		return 1
	}

	medicationHandler := handler.NewMedicationHandler(rec, dataStore)
	alertHandler := handler.NewAlertHandler(sched)
	reportHandler := handler.NewReportHandler(rec)

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths: []string{"/health", "/health/live", "/health/ready"},
		Module:    logging.Module("notification-scheduling"),
	}))
	r.Use(middleware.PanicRecoveryGin())

	healthChecker := health.NewChecker(redisClient, msgBus, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/medications", medicationHandler.HandleCreate)
		v1.GET("/medications", medicationHandler.HandleList)
		v1.GET("/medications/:id", medicationHandler.HandleGet)
		v1.DELETE("/medications/:id", medicationHandler.HandleDelete)
		v1.POST("/medications/:id/taken", medicationHandler.HandleMarkTaken)

		v1.POST("/alerts/action", alertHandler.HandleAction)
		v1.GET("/alerts/jobs", alertHandler.HandleJobs)

		v1.POST("/bleeding", reportHandler.HandleRecordBleeding)
		v1.GET("/reports/adherence/:id", reportHandler.HandleAdherence)
		v1.GET("/reports/bleeding", reportHandler.HandleBleedingStatus)
		v1.GET("/reports/daily", reportHandler.HandleDailyCounts)
		v1.GET("/badge", reportHandler.HandleBadge)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("store_driver", cfg.StoreDriver),
			slog.Duration("snooze_delay", cfg.Scheduler.SnoozeDelay),
			slog.Duration("alert_lifetime", cfg.Scheduler.AlertLifetime),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		sched.Shutdown()
		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "notification-scheduling"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: Version,
		},
		Environment: env,
		LogLevel:    cfg.LogLevel,
	})
}

func initStore(ctx context.Context, cfg *config.Config) (domain.Store, *redis.Client, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data will not survive a restart")
		return store.NewMemoryStore(), nil, nil
	}

	redisClient := redis.NewClient(cfg.Redis.Options())

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		return nil, nil, err
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		return nil, nil, err
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	return store.NewRedisStore(redisClient), redisClient, nil
}
