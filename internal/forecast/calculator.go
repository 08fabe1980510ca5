package forecast

import (
	"context"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

// Calculator runs aggregation, projection and scheduling for a single item.
type Calculator struct {
	aggregator   *Aggregator
	lookbackDays int
}

// NewCalculator creates a calculator reading issues from source over the trailing lookbackDays.
func NewCalculator(source IssueSource, lookbackDays int) *Calculator {
	if lookbackDays <= 0 {
		lookbackDays = LookbackDays
	}
	return &Calculator{
		aggregator:   NewAggregator(source),
		lookbackDays: lookbackDays,
	}
}

// Forecast computes the forecast record of item as of reference. ForecastDate is left to the caller.
// Failures are returned as *StageError.
func (c *Calculator) Forecast(ctx context.Context, item domain.Item, reference time.Time) (domain.ForecastRecord, error) {
	start, end := LookbackWindow(reference, c.lookbackDays)

	history, err := c.aggregator.AggregateConsumption(ctx, item.ID, start, end)
	if err != nil {
		return domain.ForecastRecord{}, stageErr(item.ID, StageAggregation, err)
	}

	projection, err := ComputeProjection(item.CurrentStock, item.MinStock, history)
	if err != nil {
		return domain.ForecastRecord{}, stageErr(item.ID, StageProjection, err)
	}

	schedule, err := Schedule(item.CurrentStock, item.MinStock, projection.Monthly, projection.ProjectedAnnual, reference)
	if err != nil {
		return domain.ForecastRecord{}, stageErr(item.ID, StageScheduling, err)
	}

	return domain.ForecastRecord{
		ItemID:                      item.ID,
		AnnualConsumptionRate:       projection.Rate,
		ProjectedAnnualConsumption:  projection.ProjectedAnnual,
		MonthlyProjectedConsumption: projection.Monthly,
		MonthsToMinStock:            schedule.MonthsToMin,
		ReorderDate:                 schedule.ReorderDate,
		RecommendedOrderQty:         schedule.RecommendedQty,
		ConfidenceLevel:             projection.Confidence,
		ForecastMethod:              projection.Method,
		ItemName:                    item.Name,
		Category:                    item.Category,
		Unit:                        item.Unit,
		CurrentStock:                item.CurrentStock,
		MinStock:                    item.MinStock,
	}, nil
}
