package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/forecast"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
)

// ForecastMetrics exposes batch runner health as prometheus metrics.
type ForecastMetrics struct {
	runs              *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	itemFailures      *prometheus.CounterVec
	itemsForecast     prometheus.Gauge
	reorderItems      prometheus.Gauge
	averageConfidence prometheus.Gauge
	lastSuccess       prometheus.Gauge
}

var _ pipeline.Recorder = (*ForecastMetrics)(nil)

var (
	forecastMetricsOnce sync.Once
	forecastMetrics     *ForecastMetrics
)

// Forecast returns the process-wide metrics registered on the default registerer.
func Forecast() *ForecastMetrics {
	forecastMetricsOnce.Do(func() {
		forecastMetrics = NewForecastMetrics(prometheus.DefaultRegisterer)
	})
	return forecastMetrics
}

func NewForecastMetrics(registerer prometheus.Registerer) *ForecastMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &ForecastMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_forecast_runs_total",
			Help: "Forecast runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventory_forecast_run_duration_seconds",
			Help:    "Wall-clock duration of forecast runs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_forecast_item_failures_total",
			Help: "Items that failed to forecast, by failing stage.",
		}, []string{"stage"}),
		itemsForecast: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_forecast_latest_items",
			Help: "Records in the latest forecast generation.",
		}),
		reorderItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_forecast_latest_reorder_items",
			Help: "Items reaching minimum stock within three months in the latest generation.",
		}),
		averageConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_forecast_latest_average_confidence",
			Help: "Average confidence level of the latest generation.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_forecast_last_success_timestamp_seconds",
			Help: "Unix time of the last successful forecast run.",
		}),
	}

	registerer.MustRegister(
		m.runs,
		m.runDuration,
		m.itemFailures,
		m.itemsForecast,
		m.reorderItems,
		m.averageConfidence,
		m.lastSuccess,
	)

	return m
}

func (m *ForecastMetrics) ObserveRun(status domain.RunStatus, duration time.Duration) {
	m.runs.WithLabelValues(string(status)).Inc()
	m.runDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

// ObserveBatch updates the latest-generation gauges. Empty runs leave them untouched since
// nothing new was written.
func (m *ForecastMetrics) ObserveBatch(result *pipeline.BatchResult) {
	if result == nil {
		return
	}
	m.lastSuccess.Set(float64(result.ForecastDate.Unix()))
	if result.NothingToForecast {
		return
	}
	m.itemsForecast.Set(float64(result.ProcessedItems))
	m.reorderItems.Set(float64(result.ReorderWithin3Months))
	m.averageConfidence.Set(result.AverageConfidence)
}

func (m *ForecastMetrics) ObserveItemFailure(stage forecast.Stage) {
	label := string(stage)
	if label == "" {
		label = "unknown"
	}
	m.itemFailures.WithLabelValues(label).Inc()
}
