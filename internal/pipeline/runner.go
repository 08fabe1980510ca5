package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/forecast"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

// Runner recomputes the forecast of every item and persists it as a new generation.
type Runner struct {
	items     repository.ItemRepository
	forecasts repository.ForecastRepository
	runs      repository.RunRepository
	calc      *forecast.Calculator
	cfg       Config
	locker    RunLocker
	recorder  Recorder
	now       func() time.Time

	mu sync.Mutex
}

// Option customises a Runner.
type Option func(*Runner)

// WithRunRepository records every run attempt.
func WithRunRepository(runs repository.RunRepository) Option {
	return func(r *Runner) { r.runs = runs }
}

// WithLocker adds a cross-process run lock on top of the in-process one.
func WithLocker(locker RunLocker) Option {
	return func(r *Runner) { r.locker = locker }
}

func WithRecorder(recorder Recorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// WithClock overrides the wall clock that stamps forecast dates.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a new batch runner
func NewRunner(
	items repository.ItemRepository,
	transactions repository.TransactionRepository,
	forecasts repository.ForecastRepository,
	cfg Config,
	opts ...Option,
) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailurePolicyAbort
	}

	r := &Runner{
		items:     items,
		forecasts: forecasts,
		calc:      forecast.NewCalculator(transactions, cfg.LookbackDays),
		cfg:       cfg,
		recorder:  noopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run forecasts every item as of opts.ReferenceDate and appends the batch as the latest
// generation. A failed run writes nothing and leaves the previous generation as latest.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*BatchResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	if r.locker != nil {
		release, acquired, err := r.locker.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !acquired {
			return nil, ErrRunInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("failed to release forecast run lock")
			}
		}()
	}

	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	startedAt := r.now().UTC()
	forecastDate := startedAt.Truncate(time.Microsecond)
	reference := opts.ReferenceDate
	if reference.IsZero() {
		reference = startedAt
	}

	run := &domain.ForecastRun{
		ForecastDate:  forecastDate,
		ReferenceDate: reference,
		Status:        domain.RunProcessing,
		StartedAt:     startedAt,
	}
	if err := r.createRun(ctx, run); err != nil {
		return nil, err
	}

	result, err := r.execute(ctx, run, forecastDate, reference)
	if err != nil {
		r.finishRun(ctx, run, nil, err)
		return nil, err
	}

	result.Duration = r.now().Sub(startedAt)
	r.finishRun(ctx, run, result, nil)

	return result, nil
}

func (r *Runner) execute(ctx context.Context, run *domain.ForecastRun, forecastDate, reference time.Time) (*BatchResult, error) {
	// 1. Load items
	items, err := r.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	result := &BatchResult{
		RunID:         run.ID,
		ForecastDate:  forecastDate,
		ReferenceDate: reference,
		TotalItems:    len(items),
		Skipped:       []ItemFailure{},
	}
	run.TotalItems = len(items)

	// 2. Nothing to forecast is a successful no-op
	if len(items) == 0 {
		log.Info().Msg("no items to forecast")
		result.NothingToForecast = true
		return result, nil
	}

	// 3. Forecast each item
	records, skipped, err := r.forecastItems(ctx, items, reference)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped
	if len(records) == 0 {
		return nil, fmt.Errorf("all %d items failed to forecast", len(items))
	}

	for i := range records {
		records[i].ForecastDate = forecastDate
	}

	// 4. Persist the generation atomically
	if err := r.forecasts.ReplaceLatestBatch(ctx, forecastDate, records); err != nil {
		return nil, fmt.Errorf("failed to persist forecast batch: %w", err)
	}

	// 5. Summarise
	summary := domain.Summarize(forecastDate, records)
	result.ProcessedItems = len(records)
	result.ReorderWithin3Months = summary.ReorderWithin3Months
	result.AverageConfidence = summary.AverageConfidence
	result.HighConfidence = summary.HighConfidence
	result.Records = records

	return result, nil
}

// forecastItems runs the calculator over items with a bounded worker pool and returns the
// records in item order.
func (r *Runner) forecastItems(ctx context.Context, items []domain.Item, reference time.Time) ([]domain.ForecastRecord, []ItemFailure, error) {
	results := make([]domain.ForecastRecord, len(items))
	done := make([]bool, len(items))

	var (
		mu      sync.Mutex
		skipped []ItemFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rec, err := r.calc.Forecast(gctx, item, reference)
			if err == nil {
				results[i] = rec
				done[i] = true
				return nil
			}

			var stage forecast.Stage
			var stageErr *forecast.StageError
			if errors.As(err, &stageErr) {
				stage = stageErr.Stage
			}
			r.recorder.ObserveItemFailure(stage)

			// cancellation and timeouts always abort the run
			if r.cfg.FailurePolicy != FailurePolicySkip || ctx.Err() != nil || isContextErr(err) {
				return err
			}

			log.Warn().
				Err(err).
				Int64("item_id", item.ID).
				Str("stage", string(stage)).
				Msg("skipping item that failed to forecast")

			mu.Lock()
			skipped = append(skipped, ItemFailure{ItemID: item.ID, Stage: stage, Error: err.Error()})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("forecast aborted: %w", err)
	}

	records := make([]domain.ForecastRecord, 0, len(items))
	for i, ok := range done {
		if ok {
			records = append(records, results[i])
		}
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].ItemID < skipped[j].ItemID })
	if skipped == nil {
		skipped = []ItemFailure{}
	}

	return records, skipped, nil
}

func (r *Runner) createRun(ctx context.Context, run *domain.ForecastRun) error {
	if r.runs == nil {
		return nil
	}
	if err := r.runs.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to create forecast run: %w", err)
	}
	return nil
}

// finishRun records the outcome of a run. Bookkeeping outlives the run's own deadline.
func (r *Runner) finishRun(ctx context.Context, run *domain.ForecastRun, result *BatchResult, runErr error) {
	completedAt := r.now().UTC()
	run.CompletedAt = &completedAt
	duration := completedAt.Sub(run.StartedAt)

	if runErr != nil {
		run.Status = domain.RunFailed
		run.ErrorMessage = runErr.Error()
		log.Error().Err(runErr).Time("reference_date", run.ReferenceDate).Msg("forecast run failed")
	} else {
		run.Status = domain.RunCompleted
		run.ProcessedItems = result.ProcessedItems
		run.SkippedItems = len(result.Skipped)
		run.ReorderItems = result.ReorderWithin3Months
		run.AverageConfidence = result.AverageConfidence
		r.recorder.ObserveBatch(result)

		log.Info().
			Time("forecast_date", result.ForecastDate).
			Int("items", result.TotalItems).
			Int("processed", result.ProcessedItems).
			Int("skipped", len(result.Skipped)).
			Int("reorder_within_3_months", result.ReorderWithin3Months).
			Float64("average_confidence", result.AverageConfidence).
			Dur("duration", duration).
			Msg("forecast run completed")
	}
	r.recorder.ObserveRun(run.Status, duration)

	if r.runs == nil {
		return
	}
	if err := r.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn().Err(err).Int64("run_id", run.ID).Msg("failed to update forecast run")
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
