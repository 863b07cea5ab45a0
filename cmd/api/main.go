package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/istmo-energy/portal-backend/api"
	"github.com/istmo-energy/portal-backend/api/controllers"
	"github.com/istmo-energy/portal-backend/api/routes"
	"github.com/istmo-energy/portal-backend/internal/auth"
	"github.com/istmo-energy/portal-backend/internal/documents"
	"github.com/istmo-energy/portal-backend/internal/inquiries"
	"github.com/istmo-energy/portal-backend/internal/notifications"
	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/internal/quotes"
	"github.com/istmo-energy/portal-backend/internal/reschedule"
	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/internal/technicians"
	"github.com/istmo-energy/portal-backend/internal/users"
	"github.com/istmo-energy/portal-backend/pkg/auth/session"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/migrate"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
	"github.com/istmo-energy/portal-backend/pkg/redis"
	"github.com/istmo-energy/portal-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	provisionService, err := auth.NewProvisionService(auth.ProvisionServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create provision service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	projectRepo := projects.NewRepository(gormDB)
	projectService, err := projects.NewService(projectRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create projects service", err)
		os.Exit(1)
	}

	technicianRepo := technicians.NewRepository(gormDB)
	technicianService, err := technicians.NewService(technicianRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create technicians service", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(quotes.NewRepository(gormDB), projectService, dbClient, outboxService, cfg.Quotes)
	if err != nil {
		logg.Error(context.Background(), "failed to create quotes service", err)
		os.Exit(1)
	}

	appointmentRepo := scheduling.NewRepository(gormDB)
	schedulingService, err := scheduling.NewService(appointmentRepo, technicianRepo, projectService, dbClient, nil, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduling service", err)
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

	inquiryService, err := inquiries.NewService(inquiries.NewRepository(gormDB), projectService, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create inquiries service", err)
		os.Exit(1)
	}

	documentService, err := documents.NewService(documents.ServiceParams{
		Repo:      documents.NewRepository(gormDB),
		Projects:  projectRepo,
		Signer:    gcsClient,
		GCSConfig: cfg.GCS,
		Documents: cfg.Documents,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create documents service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}
	handler := routes.NewRouter(cfg, logg, redisClient, routes.Deps{
		SessionManager: sessionManager,
		Auth:           authService,
		Provision:      provisionService,
		Inquiries:      inquiryService,
		Projects:       projectService,
		Quotes:         quoteService,
		Technicians:    technicianService,
		Scheduling:     schedulingService,
		Reschedule:     rescheduleService,
		Documents:      documentService,
		Notifications:  notificationService,
		HealthChecks: map[string]controllers.HealthPinger{
			"database": dbClient,
			"redis":    redisClient,
			"gcs":      gcsClient,
		},
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": ":" + cfg.App.Port,
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(cfg, handler)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
