package forecast

import (
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

const (
	// LookbackDays is the trailing window of issue history feeding a forecast.
	LookbackDays = 365

	// HistoryBuckets splits the lookback window into monthly slots for the confidence score.
	HistoryBuckets = 12

	// FloorDivisor is the smallest stock level used as divisor for the consumption rate.
	// It distorts rates for stock below one unit; downstream displays rely on it as is.
	FloorDivisor = 1.0

	// GrowthBuffer inflates observed annual consumption.
	GrowthBuffer = 1.10

	// DefaultHeuristicMultiplier projects min_stock * 2 when there is no observed consumption.
	DefaultHeuristicMultiplier = 2.0

	MonthsPerYear = 12.0

	// NoDepletionSentinel marks "not foreseeable"; it is never a month count.
	NoDepletionSentinel = domain.NoDepletionSentinel

	// ReorderHorizonMonths bounds how far ahead a reorder date is planned.
	ReorderHorizonMonths = 12.0

	// UrgentReorderMonths is the window inside which an order quantity is recommended.
	UrgentReorderMonths = domain.UrgentReorderMonths

	DaysPerMonth = 30.0

	// ReorderCoverFraction is the share of projected annual consumption ordered at once.
	ReorderCoverFraction = 0.25
)

const (
	DefaultHeuristicConfidence = 0.30
	trendConfidenceBase        = 0.50
	trendCoverageWeight        = 0.30
	trendStabilityWeight       = 0.20
)

// ConsumptionHistory is the aggregated issue history of one item over the lookback window.
type ConsumptionHistory struct {
	Total   float64                 // annual consumption
	Monthly [HistoryBuckets]float64 // Total split into equal slots, oldest first
}

// Projection is the output of the projection calculator.
type Projection struct {
	Rate            float64
	ProjectedAnnual float64
	Monthly         float64
	Method          domain.ForecastMethod
	Confidence      float64
}

// DepletionSchedule is the output of the depletion scheduler.
type DepletionSchedule struct {
	MonthsToMin    float64
	ReorderDate    *time.Time
	RecommendedQty int
}
