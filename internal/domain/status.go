package domain

import "strings"

// NoDepletionSentinel marks a forecast whose stock never foreseeably reaches the minimum.
// It is a marker, never a month count.
const NoDepletionSentinel = 999.0

// UrgentReorderMonths is the horizon inside which a reorder quantity is recommended.
const UrgentReorderMonths = 3.0

// HighConfidenceThreshold is the confidence from which a forecast counts as high confidence.
const HighConfidenceThreshold = 0.7

// IsForeseeable reports whether months holds a real depletion estimate.
func IsForeseeable(months float64) bool {
	return months < NoDepletionSentinel
}

// NeedsReorder reports whether the record falls into the urgent reorder window.
func (r ForecastRecord) NeedsReorder() bool {
	return IsForeseeable(r.MonthsToMinStock) && r.MonthsToMinStock <= UrgentReorderMonths
}

// Urgency classifies how soon an item reaches its minimum stock.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
	UrgencyNone     Urgency = "none"
)

// UrgencyForMonths maps months to minimum stock onto an urgency band using 30-day months.
func UrgencyForMonths(months float64) Urgency {
	if !IsForeseeable(months) {
		return UrgencyNone
	}

	days := months * 30
	switch {
	case days <= 7:
		return UrgencyCritical
	case days <= 14:
		return UrgencyHigh
	case days <= 30:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// ConfidenceBand is a display bucket for confidence levels.
type ConfidenceBand string

const (
	ConfidenceHigh    ConfidenceBand = "high"
	ConfidenceMedium  ConfidenceBand = "medium"
	ConfidenceLow     ConfidenceBand = "low"
	ConfidenceVeryLow ConfidenceBand = "very_low"
)

// ConfidenceBandFor buckets a confidence level in [0,1].
func ConfidenceBandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.6:
		return ConfidenceMedium
	case confidence >= 0.4:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

var forecastMethodLabels = map[ForecastMethod]string{
	MethodHistoricalTrend:  "Historical trend",
	MethodDefaultHeuristic: "Default heuristic",
}

// ForecastMethodLabel returns a human-readable label for a forecast method.
func ForecastMethodLabel(method ForecastMethod) string {
	if label, ok := forecastMethodLabels[method]; ok {
		return label
	}

	return "Unknown"
}

// ParseForecastMethod returns the method for a given tag (case-insensitive).
func ParseForecastMethod(tag string) (ForecastMethod, bool) {
	method := ForecastMethod(strings.ToLower(strings.TrimSpace(tag)))
	_, ok := forecastMethodLabels[method]

	return method, ok
}
