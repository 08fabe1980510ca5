package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/cache"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

// ForecastRunner runs a forecast batch; implemented by pipeline.Runner.
type ForecastRunner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.BatchResult, error)
}

var _ pipeline.Trigger = (*ForecastService)(nil)

type ForecastService struct {
	runner    ForecastRunner
	forecasts repository.ForecastRepository
	runs      repository.RunRepository
	cache     cache.ForecastCache

	// epoch counts invalidations; a read that started before the latest invalidation
	// must not populate the cache.
	cacheMu sync.RWMutex
	epoch   uint64
}

func NewForecastService(
	runner ForecastRunner,
	forecasts repository.ForecastRepository,
	runs repository.RunRepository,
	cacheImpl cache.ForecastCache,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{runner: runner, forecasts: forecasts, runs: runs, cache: cacheImpl}
}

// RunForecast runs a batch and drops cached reads of the previous generation.
func (s *ForecastService) RunForecast(ctx context.Context, opts pipeline.RunOptions) (*pipeline.BatchResult, error) {
	result, err := s.runner.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	if !result.NothingToForecast {
		s.invalidate(ctx)
	}

	return result, nil
}

// Run lets the daily trigger drive runs through the service.
func (s *ForecastService) Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.BatchResult, error) {
	return s.RunForecast(ctx, opts)
}

func (s *ForecastService) GetLatest(ctx context.Context, filter domain.ForecastFilter) (*domain.ForecastBatch, error) {
	if batch, ok, err := s.cache.GetLatest(ctx, filter); err == nil && ok {
		return batch, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get latest failed")
	}

	epoch := s.cacheEpoch()
	batch, err := s.forecasts.GetLatestBatch(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.storeIfCurrent(epoch, func() error { return s.cache.SetLatest(ctx, filter, batch) }, "latest")

	return batch, nil
}

// GetSummary summarises the whole latest generation.
func (s *ForecastService) GetSummary(ctx context.Context) (*domain.ForecastSummary, error) {
	if summary, ok, err := s.cache.GetSummary(ctx); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get summary failed")
	}

	epoch := s.cacheEpoch()
	batch, err := s.forecasts.GetLatestBatch(ctx, domain.ForecastFilter{})
	if err != nil {
		return nil, err
	}

	summary := domain.Summarize(batch.ForecastDate, batch.Records)

	s.storeIfCurrent(epoch, func() error { return s.cache.SetSummary(ctx, &summary) }, "summary")

	return &summary, nil
}

// GetReorderList returns latest-generation items reaching minimum stock within three months,
// most urgent first. Items without foreseeable depletion never appear.
func (s *ForecastService) GetReorderList(ctx context.Context, categories []string) ([]domain.ReorderItem, error) {
	maxMonths := domain.UrgentReorderMonths
	batch, err := s.GetLatest(ctx, domain.ForecastFilter{Categories: categories, MaxMonths: &maxMonths})
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReorderItem, 0, len(batch.Records))
	for _, rec := range batch.Records {
		if !rec.NeedsReorder() {
			continue
		}
		items = append(items, domain.NewReorderItem(rec))
	}

	return items, nil
}

func (s *ForecastService) ListBatches(ctx context.Context, limit int) ([]time.Time, error) {
	return s.forecasts.ListBatchDates(ctx, limit)
}

func (s *ForecastService) ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error) {
	if s.runs == nil {
		return []domain.ForecastRun{}, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

// PurgeBefore deletes generations older than before, always keeping the latest one.
func (s *ForecastService) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, fmt.Errorf("purge cutoff is required")
	}

	n, err := s.forecasts.PurgeBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
	}

	log.Info().Time("before", before).Int64("records", n).Msg("forecast batches purged")
	return n, nil
}

func (s *ForecastService) cacheEpoch() uint64 {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.epoch
}

// storeIfCurrent runs set unless the cache was invalidated after epoch was read.
func (s *ForecastService) storeIfCurrent(epoch uint64, set func() error, what string) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if s.epoch != epoch {
		return
	}
	if err := set(); err != nil {
		log.Warn().Err(err).Msgf("forecast: cache set %s failed", what)
	}
}

func (s *ForecastService) invalidate(ctx context.Context) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.epoch++
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidation failed")
	}
}
