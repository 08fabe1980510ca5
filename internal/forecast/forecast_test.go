package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

type stubIssues struct {
	rows  map[int64][]domain.IssueQuantity
	err   error
	since time.Time
}

func (s *stubIssues) ListIssueTransactions(_ context.Context, itemID int64, since time.Time) ([]domain.IssueQuantity, error) {
	s.since = since
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[itemID], nil
}

var reference = time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)

func TestCalculator_ScenarioHistoricalTrend(t *testing.T) {
	source := &stubIssues{rows: map[int64][]domain.IssueQuantity{
		1: {
			{Quantity: 60, Date: reference.AddDate(0, -3, 0)},
			{Quantity: 60, Date: reference.AddDate(0, -9, 0)},
		},
	}}
	calc := NewCalculator(source, 0)

	item := domain.Item{ID: 1, Name: "Copy paper", CurrentStock: 100, MinStock: 20, Unit: "ream"}
	rec, err := calc.Forecast(context.Background(), item, reference)
	require.NoError(t, err)

	assert.InDelta(t, 1.2, rec.AnnualConsumptionRate, 1e-9)
	assert.Equal(t, domain.MethodHistoricalTrend, rec.ForecastMethod)
	assert.InDelta(t, 132, rec.ProjectedAnnualConsumption, 1e-9)
	assert.InDelta(t, 11, rec.MonthlyProjectedConsumption, 1e-9)
	assert.InDelta(t, 80.0/11.0, rec.MonthsToMinStock, 1e-9)
	assert.Equal(t, 0, rec.RecommendedOrderQty)
	require.NotNil(t, rec.ReorderDate)
	assert.Equal(t, time.Date(2027, 5, 7, 0, 0, 0, 0, time.UTC), *rec.ReorderDate)
	assert.Greater(t, rec.ConfidenceLevel, DefaultHeuristicConfidence)
	assert.Equal(t, "Copy paper", rec.ItemName)
	assert.Equal(t, reference.AddDate(0, 0, -LookbackDays), source.since)
}

func TestCalculator_ScenarioDefaultHeuristic(t *testing.T) {
	calc := NewCalculator(&stubIssues{}, 365)

	item := domain.Item{ID: 2, CurrentStock: 10, MinStock: 50}
	rec, err := calc.Forecast(context.Background(), item, reference)
	require.NoError(t, err)

	assert.Zero(t, rec.AnnualConsumptionRate)
	assert.Equal(t, domain.MethodDefaultHeuristic, rec.ForecastMethod)
	assert.Equal(t, 100.0, rec.ProjectedAnnualConsumption)
	assert.InDelta(t, 8.3333, rec.MonthlyProjectedConsumption, 1e-4)
	assert.Zero(t, rec.MonthsToMinStock)
	assert.Equal(t, 40, rec.RecommendedOrderQty)
	require.NotNil(t, rec.ReorderDate)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *rec.ReorderDate)
	assert.Equal(t, DefaultHeuristicConfidence, rec.ConfidenceLevel)
}

func TestCalculator_StageErrors(t *testing.T) {
	t.Run("aggregation", func(t *testing.T) {
		boom := errors.New("connection refused")
		calc := NewCalculator(&stubIssues{err: boom}, 365)

		_, err := calc.Forecast(context.Background(), domain.Item{ID: 7}, reference)

		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, int64(7), stageErr.ItemID)
		assert.Equal(t, StageAggregation, stageErr.Stage)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("projection", func(t *testing.T) {
		calc := NewCalculator(&stubIssues{}, 365)

		_, err := calc.Forecast(context.Background(), domain.Item{ID: 8, CurrentStock: -1}, reference)

		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, StageProjection, stageErr.Stage)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "forecast item 8: projection failed")
	})
}

func TestLookbackWindow_NonPositiveDaysUseDefault(t *testing.T) {
	want, _ := LookbackWindow(reference, LookbackDays)
	for _, days := range []int{0, -30} {
		start, end := LookbackWindow(reference, days)
		assert.Equal(t, want, start)
		assert.Equal(t, reference, end)
	}

	start, _ := LookbackWindow(reference, 90)
	assert.Equal(t, reference.AddDate(0, 0, -90), start)
}

func TestAggregateConsumption(t *testing.T) {
	start, end := LookbackWindow(reference, 365)
	source := &stubIssues{rows: map[int64][]domain.IssueQuantity{
		1: {
			{Quantity: 5, Date: start.Add(-time.Second)}, // before window
			{Quantity: 7, Date: start},                   // inclusive start
			{Quantity: 11, Date: end.Add(-time.Second)},  // last instant
			{Quantity: 13, Date: end},                    // exclusive end
		},
	}}

	history, err := NewAggregator(source).AggregateConsumption(context.Background(), 1, start, end)
	require.NoError(t, err)

	assert.Equal(t, 18.0, history.Total)
	assert.Equal(t, 7.0, history.Monthly[0])
	assert.Equal(t, 11.0, history.Monthly[HistoryBuckets-1])

	t.Run("no rows", func(t *testing.T) {
		history, err := NewAggregator(source).AggregateConsumption(context.Background(), 99, start, end)
		require.NoError(t, err)
		assert.Zero(t, history.Total)
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := NewAggregator(source).AggregateConsumption(context.Background(), 1, end, end)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestComputeProjection_FloorDivisor(t *testing.T) {
	history := ConsumptionHistory{Total: 10}

	t.Run("zero stock has no rate", func(t *testing.T) {
		p, err := ComputeProjection(0, 5, history)
		require.NoError(t, err)
		assert.Zero(t, p.Rate)
		assert.Equal(t, domain.MethodDefaultHeuristic, p.Method)
		assert.Equal(t, 10.0, p.ProjectedAnnual)
	})

	t.Run("fractional stock divides by one", func(t *testing.T) {
		p, err := ComputeProjection(0.5, 5, history)
		require.NoError(t, err)
		assert.Equal(t, 10.0, p.Rate)
		assert.Equal(t, domain.MethodHistoricalTrend, p.Method)
	})
}

func TestComputeProjection_NegativeNetConsumption(t *testing.T) {
	var history ConsumptionHistory
	history.Total = -4
	history.Monthly[11] = -4

	p, err := ComputeProjection(10, 50, history)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodDefaultHeuristic, p.Method)
	assert.Equal(t, 100.0, p.ProjectedAnnual)
	assert.Equal(t, DefaultHeuristicConfidence, p.Confidence)
}

func TestComputeProjection_InvalidInput(t *testing.T) {
	for _, tc := range []struct {
		name         string
		current, min float64
		annual       float64
	}{
		{"negative stock", -1, 0, 0},
		{"negative min", 1, -2, 0},
		{"nan consumption", 1, 1, math.NaN()},
		{"inf stock", math.Inf(1), 1, 1},
		{"inf consumption", 1, 1, math.Inf(-1)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeProjection(tc.current, tc.min, ConsumptionHistory{Total: tc.annual})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestProjectionProperties(t *testing.T) {
	stocks := []float64{0, 0.4, 1, 10, 100, 2500}
	mins := []float64{0, 5, 20, 50}
	annuals := []float64{0, 1, 120, 3650.5}

	for _, cur := range stocks {
		for _, min := range mins {
			for _, annual := range annuals {
				p, err := ComputeProjection(cur, min, ConsumptionHistory{Total: annual})
				require.NoError(t, err)

				assert.Equal(t, p.ProjectedAnnual/12, p.Monthly, "cur=%v min=%v annual=%v", cur, min, annual)
				assert.GreaterOrEqual(t, p.Confidence, 0.0)
				assert.LessOrEqual(t, p.Confidence, 1.0)

				if cur == 0 {
					assert.Zero(t, p.Rate)
				}
				if annual == 0 {
					assert.Equal(t, domain.MethodDefaultHeuristic, p.Method)
					assert.Equal(t, min*2, p.ProjectedAnnual)
				}

				s, err := Schedule(cur, min, p.Monthly, p.ProjectedAnnual, reference)
				require.NoError(t, err)
				if p.Monthly == 0 {
					assert.Equal(t, NoDepletionSentinel, s.MonthsToMin)
					assert.Nil(t, s.ReorderDate)
					assert.Zero(t, s.RecommendedQty)
				}
				assert.GreaterOrEqual(t, s.RecommendedQty, 0)
				assert.GreaterOrEqual(t, s.MonthsToMin, 0.0)
			}
		}
	}
}

func TestConfidenceScore(t *testing.T) {
	var steady ConsumptionHistory
	for i := range steady.Monthly {
		steady.Monthly[i] = 10
		steady.Total += 10
	}

	var spike ConsumptionHistory
	spike.Monthly[4] = 120
	spike.Total = 120

	assert.Equal(t, 1.0, ConfidenceScore(domain.MethodHistoricalTrend, steady))
	assert.Equal(t, 0.525, ConfidenceScore(domain.MethodHistoricalTrend, spike))
	assert.Equal(t, DefaultHeuristicConfidence, ConfidenceScore(domain.MethodDefaultHeuristic, steady))
	assert.Equal(t, ConfidenceScore(domain.MethodHistoricalTrend, spike), ConfidenceScore(domain.MethodHistoricalTrend, spike))
}

func TestSchedule(t *testing.T) {
	t.Run("beyond horizon has no reorder date", func(t *testing.T) {
		s, err := Schedule(1000, 0, 10, 120, reference)
		require.NoError(t, err)
		assert.Equal(t, 100.0, s.MonthsToMin)
		assert.Nil(t, s.ReorderDate)
		assert.Zero(t, s.RecommendedQty)
	})

	t.Run("urgent window recommends quarter of projection", func(t *testing.T) {
		s, err := Schedule(50, 20, 11, 132, reference)
		require.NoError(t, err)
		assert.InDelta(t, 30.0/11.0, s.MonthsToMin, 1e-9)
		assert.Equal(t, 33, s.RecommendedQty)
		require.NotNil(t, s.ReorderDate)
		assert.Equal(t, time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC), *s.ReorderDate)
	})

	t.Run("sentinel", func(t *testing.T) {
		s, err := Schedule(10, 5, 0, 0, reference)
		require.NoError(t, err)
		assert.Equal(t, NoDepletionSentinel, s.MonthsToMin)
		assert.False(t, domain.IsForeseeable(s.MonthsToMin))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Schedule(10, 5, math.NaN(), 0, reference)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
