package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fleetlab/ota-server/internal/config"
	"github.com/fleetlab/ota-server/internal/database"
	"github.com/fleetlab/ota-server/internal/engine"
	"github.com/fleetlab/ota-server/internal/handlers"
	"github.com/fleetlab/ota-server/internal/middleware"
	"github.com/fleetlab/ota-server/internal/scheduler"
	"github.com/fleetlab/ota-server/internal/services"
	"github.com/fleetlab/ota-server/internal/storage"
)

func main() {
	// Load .env file if present (ignored in production deployments)
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := newLogger(cfg.LogLevel)

	db, err := database.InitDB(database.DefaultConfig(cfg.DatabasePath))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close(db)

	store := storage.New(cfg.StorageRoot, cfg.MaxFirmwareSizeBytes())
	if err := store.EnsureRoot(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare firmware storage")
	}

	var notifier *services.NotificationService
	if cfg.NotifyEnabled {
		notifier, err = services.NewNotificationService(&services.NotificationConfig{
			FromEmail:  cfg.NotifyFromEmail,
			Recipients: cfg.NotifyRecipients,
			Region:     cfg.AWSRegion,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize notifications")
		}
	}

	sched := scheduler.New(db, cfg.SchedulesFile, cfg.Location(), notifierOrNil(notifier), logger)
	if err := sched.Start(); err != nil {
		logger.Warn().Err(err).Msg("Initial schedule reconciliation failed")
	}
	defer sched.Stop()

	router := setupRouter(cfg, db, sched, notifier, logger)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("OTA server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Block until SIGINT/SIGTERM, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}
}

// setupRouter wires all HTTP routes. Health and firmware downloads are open;
// everything else requires the shared API token.
func setupRouter(cfg *config.Config, db *gorm.DB, sched *scheduler.Scheduler, notifier *services.NotificationService, logger zerolog.Logger) *gin.Engine {
	eng := engine.New(logger)
	checkinService := services.NewCheckinService(db, eng, cfg.BaseURL, cfg.PollIntervalMinutes, logger)
	rolloutService := services.NewRolloutService(db, rolloutNotifierOrNil(notifier), logger)

	checkinHandler := handlers.NewCheckinHandler(checkinService)
	firmwareHandler := handlers.NewFirmwareHandler(db)
	adminHandler := handlers.NewAdminHandler(db, rolloutService, sched)

	router := gin.Default()

	router.GET("/healthz", handlers.HealthHandler)
	router.GET("/firmware/:version/image.bin", firmwareHandler.Download)

	api := router.Group("/api/v1", middleware.APITokenMiddleware(cfg.APIToken))
	{
		api.POST("/check-update", checkinHandler.CheckUpdate)
		api.POST("/report-status", checkinHandler.ReportStatus)
	}

	admin := router.Group("/admin", middleware.APITokenMiddleware(cfg.APIToken))
	{
		admin.GET("/devices", adminHandler.ListDevices)
		admin.GET("/firmware", adminHandler.ListFirmware)
		admin.GET("/rollouts", adminHandler.ListRollouts)
		admin.POST("/rollouts", adminHandler.CreateRollout)
		admin.POST("/rollouts/:name/status", adminHandler.SetRolloutStatus)
		admin.POST("/scheduler/sync", adminHandler.SyncScheduler)
	}

	return router
}

// newLogger builds the root zerolog logger with a console writer and the
// configured level.
func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(parsed).
		With().Timestamp().Logger()
}

// notifierOrNil keeps a typed-nil *NotificationService from masquerading as
// a non-nil interface value inside the scheduler.
func notifierOrNil(n *services.NotificationService) scheduler.ActivationNotifier {
	if n == nil {
		return nil
	}
	return n
}

func rolloutNotifierOrNil(n *services.NotificationService) services.RolloutNotifier {
	if n == nil {
		return nil
	}
	return n
}
