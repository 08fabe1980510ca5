package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/forecast"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
)

func TestForecastMetrics(t *testing.T) {
	m := NewForecastMetrics(prometheus.NewRegistry())

	m.ObserveRun(domain.RunCompleted, 2*time.Second)
	m.ObserveRun(domain.RunCompleted, time.Second)
	m.ObserveRun(domain.RunFailed, time.Second)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("failed")))

	m.ObserveItemFailure(forecast.StageAggregation)
	m.ObserveItemFailure("")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemFailures.WithLabelValues("aggregation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemFailures.WithLabelValues("unknown")))

	date := time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC)
	m.ObserveBatch(&pipeline.BatchResult{ForecastDate: date, ProcessedItems: 12, ReorderWithin3Months: 3, AverageConfidence: 0.61})
	assert.Equal(t, 12.0, testutil.ToFloat64(m.itemsForecast))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reorderItems))
	assert.Equal(t, 0.61, testutil.ToFloat64(m.averageConfidence))
	assert.Equal(t, float64(date.Unix()), testutil.ToFloat64(m.lastSuccess))

	m.ObserveBatch(&pipeline.BatchResult{ForecastDate: date.Add(time.Hour), NothingToForecast: true})
	assert.Equal(t, 12.0, testutil.ToFloat64(m.itemsForecast), "empty runs keep the latest gauges")
}
