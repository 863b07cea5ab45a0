package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/istmo-energy/portal-backend/internal/cron"
	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/internal/reschedule"
	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/internal/technicians"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/metrics"
	"github.com/istmo-energy/portal-backend/pkg/migrate"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
	"github.com/istmo-energy/portal-backend/pkg/redis"
)

const lockKeyFormat = "istmo:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)
	outboxService := outbox.NewService(outboxRepo, logg)
	appointmentRepo := scheduling.NewRepository(gormDB)
	technicianRepo := technicians.NewRepository(gormDB)

	projectService, err := projects.NewService(projects.NewRepository(gormDB), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create projects service", err)
		os.Exit(1)
	}

	rescheduleService, err := reschedule.NewService(
		reschedule.NewRepository(gormDB),
		appointmentRepo,
		technicianRepo,
		projectService,
		dbClient,
		outboxService,
		cfg.Reschedule,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reschedule service", err)
		os.Exit(1)
	}

	reminderJob, err := cron.NewAppointmentReminderJob(cron.AppointmentReminderJobParams{
		Logger:       logg,
		DB:           dbClient,
		Appointments: appointmentRepo,
		Outbox:       outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder job", err)
		os.Exit(1)
	}

	tokenPurgeJob, err := cron.NewTokenPurgeJob(cron.TokenPurgeJobParams{
		Logger:     logg,
		Reschedule: rescheduleService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create token purge job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(reminderJob, tokenPurgeJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
