package forecast

import (
	"fmt"
	"math"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

// ComputeProjection derives the consumption rate, projected consumption, method and
// confidence of an item from its stock levels and aggregated history.
func ComputeProjection(currentStock, minStock float64, history ConsumptionHistory) (Projection, error) {
	annual := history.Total
	// net consumption may be negative when reversals are booked as signed issues; it then
	// has no positive rate and takes the heuristic branch
	if invalid(currentStock) || invalid(minStock) || !finite(annual) {
		return Projection{}, fmt.Errorf("%w: current=%v min=%v annual=%v", ErrInvalidInput, currentStock, minStock, annual)
	}

	p := Projection{}

	// 1. Consumption rate = annual / max(current stock, 1); zero stock has no rate
	if currentStock > 0 {
		p.Rate = annual / math.Max(currentStock, FloorDivisor)
	}

	// 2. Projected annual consumption: observed trend plus growth buffer, or min stock heuristic
	if p.Rate > 0 {
		p.ProjectedAnnual = annual * GrowthBuffer
		p.Method = domain.MethodHistoricalTrend
	} else {
		p.ProjectedAnnual = minStock * DefaultHeuristicMultiplier
		p.Method = domain.MethodDefaultHeuristic
	}

	// 3. Monthly projection
	p.Monthly = p.ProjectedAnnual / MonthsPerYear

	// 4. Confidence
	p.Confidence = ConfidenceScore(p.Method, history)

	return p, nil
}

// ConfidenceScore rates how much real history backs a projection.
//
// Default heuristic projections score DefaultHeuristicConfidence. Historical trend
// projections score 0.5 plus up to 0.3 for the share of monthly buckets with issues and
// up to 0.2 for the stability of those buckets (1 - coefficient of variation), so they
// always land in [0.5, 1] and above the heuristic.
func ConfidenceScore(method domain.ForecastMethod, history ConsumptionHistory) float64 {
	if method != domain.MethodHistoricalTrend {
		return DefaultHeuristicConfidence
	}

	var active int
	var sum float64
	for _, q := range history.Monthly {
		if q != 0 {
			active++
		}
		sum += q
	}
	coverage := float64(active) / HistoryBuckets

	var stability float64
	mean := sum / HistoryBuckets
	if mean > 0 {
		var variance float64
		for _, q := range history.Monthly {
			variance += (q - mean) * (q - mean)
		}
		stdDev := math.Sqrt(variance / HistoryBuckets)
		stability = clamp(1-stdDev/mean, 0, 1)
	}

	score := trendConfidenceBase + trendCoverageWeight*coverage + trendStabilityWeight*stability
	return roundFloat(clamp(score, 0, 1), 4)
}
