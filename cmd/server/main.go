package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"openlift/tracking-app/internal/api"
	"openlift/tracking-app/internal/cache"
	"openlift/tracking-app/internal/config"
	"openlift/tracking-app/internal/repository/mongo"
	"openlift/tracking-app/internal/service"
	"openlift/tracking-app/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Info().Msg("starting tracking server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}

	// --- Remote Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		logger.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info().Str("database", cfg.Database.Name).Msg("remote database connected")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
		logger.Info().Msg("index creation process completed")
	}()

	// --- Local Write-First Cache ---
	sessionCache, err := cache.NewSQLiteSessionCache(cfg.Cache.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Cache.Path).Msg("could not open local session cache")
	}
	defer sessionCache.Close()
	logger.Info().Str("path", cfg.Cache.Path).Msg("local session cache ready")

	// --- Archive Storage (optional) ---
	var archive storage.ArchiveStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewS3Storage(cfg.Archive, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize archive storage")
		}
		logger.Info().Str("bucket", cfg.Archive.BucketName).Msg("session archive storage ready")
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	historyRepo := mongo.NewMongoHistoryRepository(appDB)
	exerciseTemplateRepo := mongo.NewMongoExerciseTemplateRepository(appDB)
	workoutTemplateRepo := mongo.NewMongoWorkoutTemplateRepository(appDB)
	scheduledRepo := mongo.NewMongoScheduledWorkoutRepository(appDB)
	unitPrefRepo := mongo.NewMongoUnitPreferenceRepository(appDB)

	// --- Services ---
	registry := service.NewActiveSessionRegistry()
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	templateService := service.NewTemplateService(exerciseTemplateRepo, workoutTemplateRepo)
	scheduleService := service.NewScheduleService(scheduledRepo, workoutTemplateRepo, logger)
	trackerService := service.NewTrackerService(
		sessionRepo,
		historyRepo,
		scheduledRepo,
		workoutTemplateRepo,
		exerciseTemplateRepo,
		unitPrefRepo,
		userRepo,
		sessionCache,
		archive,
		registry,
		cfg.Database.RemoteTimeout,
		logger,
	)

	// --- Routes ---
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret, authService, trackerService, templateService, scheduleService)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen and serve failed")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
