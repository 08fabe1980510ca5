package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Trigger is the subset of Runner the daily trigger drives.
type Trigger interface {
	Run(ctx context.Context, opts RunOptions) (*BatchResult, error)
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	Hour   int // 24h clock, local time of the process
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		Hour:          2,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// DailyTrigger starts one forecast run per day at the configured time.
type DailyTrigger struct {
	config DailyTriggerConfig
	runner Trigger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

func NewDailyTrigger(config DailyTriggerConfig, runner Trigger) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &DailyTrigger{
		config: config,
		runner: runner,
		now:    time.Now,
	}
}

// Start starts the trigger loop
func (t *DailyTrigger) Start(ctx context.Context) {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return
	}
	t.isRunning = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	t.wg.Add(1)
	go t.runLoop(ctx)

	log.Info().
		Int("hour", t.config.Hour).
		Int("minute", t.config.Minute).
		Dur("check_interval", t.config.CheckInterval).
		Msg("daily forecast trigger started")
}

// Stop stops the trigger and waits for an in-flight run, bounded by ctx.
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("daily forecast trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the forecast when the clock has reached the scheduled time and it
// has not run yet today.
func (t *DailyTrigger) checkAndTrigger(ctx context.Context) bool {
	now := t.now()
	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	if t.lastRunDate == currentDate {
		t.mu.Unlock()
		return false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), t.config.Hour, t.config.Minute, 0, 0, now.Location())
	if now.Before(scheduled) {
		t.mu.Unlock()
		return false
	}
	t.lastRunDate = currentDate
	t.mu.Unlock()

	log.Info().Str("date", currentDate).Msg("triggering scheduled forecast run")

	if _, err := t.runner.Run(ctx, RunOptions{}); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			log.Info().Msg("scheduled forecast skipped, another run is in progress")
			return true
		}
		log.Error().Err(err).Msg("scheduled forecast run failed")
	}

	return true
}
