package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

// IssueSource provides the issue transactions of an item.
type IssueSource interface {
	ListIssueTransactions(ctx context.Context, itemID int64, since time.Time) ([]domain.IssueQuantity, error)
}

// Aggregator sums issue transactions into consumption figures.
type Aggregator struct {
	source IssueSource
}

func NewAggregator(source IssueSource) *Aggregator {
	return &Aggregator{source: source}
}

// LookbackWindow returns the trailing window of the given number of days ending at ref.
// Non-positive days fall back to LookbackDays.
func LookbackWindow(ref time.Time, days int) (start, end time.Time) {
	if days <= 0 {
		days = LookbackDays
	}
	return ref.AddDate(0, 0, -days), ref
}

// AggregateConsumption sums the item's issue quantities dated within [start, end).
// An item without matching transactions has zero consumption.
func (a *Aggregator) AggregateConsumption(ctx context.Context, itemID int64, start, end time.Time) (ConsumptionHistory, error) {
	var history ConsumptionHistory
	if !end.After(start) {
		return history, fmt.Errorf("%w: window end %s is not after start %s", ErrInvalidInput,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	rows, err := a.source.ListIssueTransactions(ctx, itemID, start)
	if err != nil {
		return history, fmt.Errorf("failed to list issue transactions: %w", err)
	}

	width := end.Sub(start) / HistoryBuckets
	if width <= 0 {
		width = 1
	}
	for _, row := range rows {
		// the source filters on since only; the upper bound is exclusive
		if row.Date.Before(start) || !row.Date.Before(end) {
			continue
		}

		history.Total += row.Quantity

		idx := int(row.Date.Sub(start) / width)
		if idx >= HistoryBuckets {
			idx = HistoryBuckets - 1
		}
		history.Monthly[idx] += row.Quantity
	}

	return history, nil
}
