// backend-go/cmd/server/main.go
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
	"github.com/redis/go-redis/v9"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/api"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/cache"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/config"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/metrics"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/migration"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/postgres"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/service"
	"github.com/kalkulis/inventory-forecast/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(cfg.Log.Level, cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrator, err := migration.New(db.DB.DB, cfg.Database.MigrationsDir)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialise migrations")
	}
	if err := migrator.Up(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Redis backs the read cache and the cross-process run lock; both are optional.
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Redis unavailable, continuing without cache and run lock")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	runnerCfg, err := pipeline.ConfigFrom(cfg.Forecast)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid forecast configuration")
	}

	forecastRepo := postgres.NewForecastRepository(db)
	runRepo := postgres.NewRunRepository(db)

	runnerOpts := []pipeline.Option{
		pipeline.WithRunRepository(runRepo),
		pipeline.WithRecorder(metrics.Forecast()),
	}
	if redisClient != nil {
		runnerOpts = append(runnerOpts, pipeline.WithLocker(
			cache.NewRunLocker(redisClient, cfg.Cache.RunLockKeyPrefix, cfg.Cache.RunLockTTLSecs)))
	}
	runner := pipeline.NewRunner(
		postgres.NewItemRepository(db),
		postgres.NewTransactionRepository(db),
		forecastRepo,
		runnerCfg,
		runnerOpts...,
	)

	forecastService := service.NewForecastService(
		runner,
		forecastRepo,
		runRepo,
		cache.NewForecastCache(redisClient, cfg.Cache.ForecastTTLSecs),
	)

	// Scheduled runs go through the service so they invalidate the cache like manual ones.
	var trigger *pipeline.DailyTrigger
	if cfg.Forecast.ScheduleEnabled {
		triggerCfg := pipeline.DefaultDailyTriggerConfig()
		triggerCfg.Hour = cfg.Forecast.ScheduleHour
		triggerCfg.Minute = cfg.Forecast.ScheduleMinute
		trigger = pipeline.NewDailyTrigger(triggerCfg, forecastService)
		trigger.Start(context.Background())
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{ForecastService: forecastService}, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Server.MetricsEnabled,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if trigger != nil {
		if err := trigger.Stop(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Forecast trigger did not stop cleanly")
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
