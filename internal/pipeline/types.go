package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/config"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/forecast"
)

// ErrRunInProgress is returned when a forecast run is triggered while another one holds the run lock.
var ErrRunInProgress = errors.New("forecast run already in progress")

// FailurePolicy decides what a run does when a single item cannot be forecast.
type FailurePolicy string

const (
	// FailurePolicyAbort fails the whole run on the first item failure; nothing is written.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicySkip logs the failing item, leaves it out of the batch and reports it in BatchResult.Skipped.
	FailurePolicySkip FailurePolicy = "skip"
)

// ParseFailurePolicy parses a policy name; the empty string selects FailurePolicyAbort.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailurePolicyAbort:
		return FailurePolicyAbort, nil
	case FailurePolicySkip:
		return FailurePolicySkip, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want abort or skip)", s)
	}
}

// Config holds configuration for the batch runner
type Config struct {
	Workers       int           // Number of items forecast concurrently
	LookbackDays  int           // Trailing issue history window
	FailurePolicy FailurePolicy // Per-item failure handling
	RunTimeout    time.Duration // Wall-clock budget of one run
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		LookbackDays:  forecast.LookbackDays,
		FailurePolicy: FailurePolicyAbort,
		RunTimeout:    5 * time.Minute,
	}
}

// ConfigFrom maps the FORECAST_* settings onto a runner config.
func ConfigFrom(cfg config.ForecastConfig) (Config, error) {
	policy, err := ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return Config{}, err
	}

	out := DefaultConfig()
	out.FailurePolicy = policy
	out.RunTimeout = cfg.RunTimeout()
	if cfg.Workers > 0 {
		out.Workers = cfg.Workers
	}
	if cfg.LookbackDays > 0 {
		out.LookbackDays = cfg.LookbackDays
	}

	return out, nil
}

// RunOptions parameterises a single run.
type RunOptions struct {
	// ReferenceDate anchors the lookback window and reorder dates. Zero means now.
	ReferenceDate time.Time
}

// ItemFailure describes an item left out of a batch under FailurePolicySkip.
type ItemFailure struct {
	ItemID int64          `json:"item_id"`
	Stage  forecast.Stage `json:"stage"`
	Error  string         `json:"error"`
}

// BatchResult summarises a completed run.
type BatchResult struct {
	RunID                int64         `json:"run_id,omitempty"`
	ForecastDate         time.Time     `json:"forecast_date"`
	ReferenceDate        time.Time     `json:"reference_date"`
	TotalItems           int           `json:"total_items"`
	ProcessedItems       int           `json:"processed_items"`
	ReorderWithin3Months int           `json:"reorder_within_3_months"`
	AverageConfidence    float64       `json:"average_confidence"`
	HighConfidence       int           `json:"high_confidence"`
	Skipped              []ItemFailure `json:"skipped"`
	NothingToForecast    bool          `json:"nothing_to_forecast"`
	Duration             time.Duration `json:"duration_ns"`

	Records []domain.ForecastRecord `json:"-"`
}

// RunLocker guards against concurrent runs across processes.
// Acquire reports acquired=false when another holder owns the lock.
type RunLocker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// Recorder observes run outcomes, typically as metrics.
type Recorder interface {
	ObserveRun(status domain.RunStatus, duration time.Duration)
	ObserveBatch(result *BatchResult)
	ObserveItemFailure(stage forecast.Stage)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRun(domain.RunStatus, time.Duration) {}
func (noopRecorder) ObserveBatch(*BatchResult)                  {}
func (noopRecorder) ObserveItemFailure(forecast.Stage)          {}
