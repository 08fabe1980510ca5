package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

var (
	// ErrBatchExists is returned when a batch is written with a forecast date that is
	// not newer than the latest stored generation.
	ErrBatchExists = errors.New("forecast batch already exists for this date or a later one")

	ErrNotFound = errors.New("not found")
)

type ItemRepository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
}

type TransactionRepository interface {
	// ListIssueTransactions returns the item's issue transactions dated at or after since.
	ListIssueTransactions(ctx context.Context, itemID int64, since time.Time) ([]domain.IssueQuantity, error)
}

// ForecastRepository stores forecast generations. Generations are appended and never
// modified; the latest one is the set of records with the maximum forecast date.
type ForecastRepository interface {
	// ReplaceLatestBatch atomically appends records as the new latest generation.
	ReplaceLatestBatch(ctx context.Context, forecastDate time.Time, records []domain.ForecastRecord) error
	// GetLatestBatch returns the latest generation narrowed by filter. The batch is empty when
	// nothing has been written yet.
	GetLatestBatch(ctx context.Context, filter domain.ForecastFilter) (*domain.ForecastBatch, error)
	ListBatchDates(ctx context.Context, limit int) ([]time.Time, error)
	// PurgeBefore deletes generations older than before. The latest generation is always kept.
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

type RunRepository interface {
	CreateRun(ctx context.Context, run *domain.ForecastRun) error
	UpdateRun(ctx context.Context, run *domain.ForecastRun) error
	ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error)
}

// IngestRepository loads inventory master data and history, used by seeding.
type IngestRepository interface {
	UpsertItem(ctx context.Context, item *domain.Item) (int64, error)
	InsertTransactions(ctx context.Context, txns []domain.ConsumptionTransaction) (int64, error)
}
