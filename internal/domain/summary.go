package domain

import (
	"math"
	"time"
)

// ForecastSummary is the headline view of one forecast batch.
type ForecastSummary struct {
	ForecastDate         time.Time              `json:"forecast_date"`
	TotalItems           int                    `json:"total_items"`
	ReorderWithin3Months int                    `json:"reorder_within_3_months"`
	AverageConfidence    float64                `json:"average_confidence"`
	HighConfidence       int                    `json:"high_confidence"`
	ByMethod             map[ForecastMethod]int `json:"by_method"`
	ByConfidenceBand     map[ConfidenceBand]int `json:"by_confidence_band"`
}

// ReorderItem is a latest-batch record that needs ordering soon.
type ReorderItem struct {
	ForecastRecord
	Urgency        Urgency        `json:"urgency"`
	ConfidenceBand ConfidenceBand `json:"confidence_band"`
}

// Summarize aggregates a batch's records into a summary.
func Summarize(forecastDate time.Time, records []ForecastRecord) ForecastSummary {
	summary := ForecastSummary{
		ForecastDate:     forecastDate,
		TotalItems:       len(records),
		ByMethod:         make(map[ForecastMethod]int),
		ByConfidenceBand: make(map[ConfidenceBand]int),
	}
	if len(records) == 0 {
		return summary
	}

	var confidenceSum float64
	for _, r := range records {
		if r.NeedsReorder() {
			summary.ReorderWithin3Months++
		}
		if r.ConfidenceLevel >= HighConfidenceThreshold {
			summary.HighConfidence++
		}
		confidenceSum += r.ConfidenceLevel
		summary.ByMethod[r.ForecastMethod]++
		summary.ByConfidenceBand[ConfidenceBandFor(r.ConfidenceLevel)]++
	}

	avg := confidenceSum / float64(len(records))
	summary.AverageConfidence = math.Round(avg*10000) / 10000

	return summary
}

// NewReorderItem decorates a record with its urgency and confidence band.
func NewReorderItem(r ForecastRecord) ReorderItem {
	return ReorderItem{
		ForecastRecord: r,
		Urgency:        UrgencyForMonths(r.MonthsToMinStock),
		ConfidenceBand: ConfidenceBandFor(r.ConfidenceLevel),
	}
}
