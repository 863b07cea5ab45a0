package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/istmo-energy/portal-backend/internal/mailer"
	"github.com/istmo-energy/portal-backend/internal/notifications"
	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/internal/technicians"
	"github.com/istmo-energy/portal-backend/internal/users"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/migrate"
	"github.com/istmo-energy/portal-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	sender, err := mailer.NewClient(cfg.Mail, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}
	broadcaster, err := notifications.NewBroadcaster(notificationService, users.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification broadcaster", err)
		os.Exit(1)
	}

	consumer, err := mailer.NewConsumer(
		sender,
		projects.NewRepository(gormDB),
		technicians.NewRepository(gormDB),
		broadcaster,
		pubsubClient.MailSubscription(),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		PubSub:       pubsubClient,
		MailConsumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting mail worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "mail worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "mail worker shutting down gracefully")
}
