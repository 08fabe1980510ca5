package main

import (
	"context"
	"fmt"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/cache"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/config"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/ingest"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/memory"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/postgres"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/service"
	"github.com/kalkulis/inventory-forecast/backend-go/pkg/logger"
)

// newDatabaseService wires the runner to postgres, sharing the redis run lock with the
// server when the cache is enabled so CLI and scheduled runs never overlap.
func newDatabaseService(db *postgres.DB, cfg *config.Config, runnerCfg pipeline.Config) (*service.ForecastService, func()) {
	forecastRepo := postgres.NewForecastRepository(db)
	runRepo := postgres.NewRunRepository(db)

	opts := []pipeline.Option{pipeline.WithRunRepository(runRepo)}
	forecastCache := cache.NewNoopForecastCache()
	closeRedis := func() {}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("redis unavailable, running without run lock")
		} else {
			opts = append(opts, pipeline.WithLocker(cache.NewRunLocker(client, cfg.Cache.RunLockKeyPrefix, cfg.Cache.RunLockTTLSecs)))
			forecastCache = cache.NewForecastCache(client, cfg.Cache.ForecastTTLSecs)
			closeRedis = func() { _ = client.Close() }
		}
	}

	runner := pipeline.NewRunner(
		postgres.NewItemRepository(db),
		postgres.NewTransactionRepository(db),
		forecastRepo,
		runnerCfg,
		opts...,
	)

	return service.NewForecastService(runner, forecastRepo, runRepo, forecastCache), closeRedis
}

// newDryRunService loads the CSV files into memory stores and wires a runner on them.
func newDryRunService(ctx context.Context, runnerCfg pipeline.Config, itemsPath, transactionsPath string) (*service.ForecastService, error) {
	if itemsPath == "" {
		return nil, fmt.Errorf("--dry-run needs --items")
	}

	items := memory.NewItemRepository()
	txns := memory.NewTransactionRepository()
	if _, err := ingest.NewLoader(memory.NewIngestRepository(items, txns)).LoadFiles(ctx, itemsPath, transactionsPath); err != nil {
		return nil, err
	}

	forecasts := memory.NewForecastRepository()
	runs := memory.NewRunRepository()
	runner := pipeline.NewRunner(items, txns, forecasts, runnerCfg, pipeline.WithRunRepository(runs))

	return service.NewForecastService(runner, forecasts, runs, nil), nil
}

func latestFilter(limit int) domain.ForecastFilter {
	if limit <= 0 {
		limit = 50
	}
	return domain.ForecastFilter{Page: 1, PageSize: limit}
}
