package postgres

import (
	"context"
	"fmt"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

type runRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *runRepository {
	return &runRepository{db: db}
}

// CreateRun inserts a run record and sets its ID.
func (r *runRepository) CreateRun(ctx context.Context, run *domain.ForecastRun) error {
	query := `
		INSERT INTO forecast_runs (
			forecast_date, reference_date, status, total_items,
			processed_items, skipped_items, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.ForecastDate, run.ReferenceDate, run.Status, run.TotalItems,
		run.ProcessedItems, run.SkippedItems, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to create forecast run: %w", err)
	}

	return nil
}

// UpdateRun persists the progress and outcome of a run.
func (r *runRepository) UpdateRun(ctx context.Context, run *domain.ForecastRun) error {
	query := `
		UPDATE forecast_runs
		SET status = $1, total_items = $2, processed_items = $3, skipped_items = $4,
		    reorder_items = $5, average_confidence = $6, completed_at = $7, error_message = $8
		WHERE id = $9
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.TotalItems, run.ProcessedItems, run.SkippedItems,
		run.ReorderItems, run.AverageConfidence, run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update forecast run %d: %w", run.ID, err)
	}

	return nil
}

func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, forecast_date, reference_date, status, total_items, processed_items,
		       skipped_items, reorder_items, average_confidence, started_at, completed_at,
		       COALESCE(error_message, '') AS error_message
		FROM forecast_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1
	`

	runs := []domain.ForecastRun{}
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("error listing forecast runs: %w", err)
	}

	return runs, nil
}
