package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsemetrics/analytics-api/internal/api"
	"github.com/pulsemetrics/analytics-api/internal/config"
	"github.com/pulsemetrics/analytics-api/internal/database"
	"github.com/pulsemetrics/analytics-api/internal/handlers"
	"github.com/pulsemetrics/analytics-api/internal/logging"
	"github.com/pulsemetrics/analytics-api/internal/middleware"
	"github.com/pulsemetrics/analytics-api/internal/ml"
	"github.com/pulsemetrics/analytics-api/internal/services"
	"github.com/pulsemetrics/analytics-api/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	stdLogger := logging.NewStandardLogger(cfg.LogLevel)
	logger := logging.NewLogrusLogger(cfg.LogLevel)

	shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.Environment)
	if err != nil {
		logger.WithError(err).Warn("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// Postgres and Redis are health-checked collaborators; the service stays
	// up without them.
	var db *database.PostgresDB
	if conn, err := database.NewPostgresConnection(cfg.Database); err != nil {
		logger.WithError(err).Warn("PostgreSQL unavailable, continuing without it")
	} else {
		db = conn
		defer db.Close()
	}

	var redisClient *database.RedisClient
	if conn, err := database.NewRedisConnection(cfg.Redis); err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without it")
	} else {
		redisClient = conn
		defer redisClient.Close()
	}

	// Train the anomaly model before accepting traffic. A training failure
	// is absorbed: the service starts degraded and scoring is skipped.
	modelManager := ml.NewManager(ml.Config{
		Trees:           cfg.Model.Trees,
		SampleSize:      cfg.Model.SampleSize,
		Contamination:   cfg.Model.Contamination,
		Seed:            cfg.Model.Seed,
		BaselineSamples: cfg.Model.BaselineSamples,
		FeatureDim:      cfg.Model.FeatureDim,
	}, logger)
	if err := modelManager.Initialize(); err != nil {
		logger.WithError(err).Error("Model initialization failed, serving without anomaly scoring")
	}

	pipeline := services.NewScoringPipeline(modelManager, logger)
	var statsClient *services.StatsTracker
	if redisClient != nil {
		statsClient = services.NewStatsTracker(redisClient.Client, logger)
	} else {
		statsClient = services.NewStatsTracker(nil, logger)
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Telemetry())

	var auth *middleware.AuthMiddleware
	if cfg.Auth.Enabled {
		auth = middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
	}

	api.SetupRoutes(router, api.Dependencies{
		Analytics: handlers.NewAnalyticsHandler(pipeline, modelManager, statsClient, logger),
		Models:    modelManager,
		DB:        db,
		Redis:     redisClient,
		Auth:      auth,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		stdLogger.LogStartup(telemetry.ServiceName, api.Version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stdLogger.LogShutdown(telemetry.ServiceName, "signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTelemetry(ctx); err != nil {
		logger.WithError(err).Warn("Telemetry shutdown failed")
	}
}
