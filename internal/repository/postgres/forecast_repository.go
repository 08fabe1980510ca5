package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

// ReplaceLatestBatch appends records as a new generation in one transaction. Readers keep
// seeing the previous generation until the commit makes the new forecast date the maximum.
func (r *forecastRepository) ReplaceLatestBatch(ctx context.Context, forecastDate time.Time, records []domain.ForecastRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Serialise writers so the latest-date check below holds until commit
		if _, err := tx.ExecContext(ctx, `LOCK TABLE inventory_forecast IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock forecast table: %w", err)
		}

		// 2. A new generation must be strictly newer than the current latest
		var latest sql.NullTime
		if err := tx.GetContext(ctx, &latest, `SELECT MAX(forecast_date) FROM inventory_forecast`); err != nil {
			return fmt.Errorf("failed to read latest forecast date: %w", err)
		}
		if latest.Valid && !forecastDate.After(latest.Time) {
			return fmt.Errorf("%w: %s <= %s", repository.ErrBatchExists,
				forecastDate.Format(time.RFC3339Nano), latest.Time.Format(time.RFC3339Nano))
		}

		// 3. Insert the generation
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_forecast (
				item_id, forecast_date, annual_consumption_rate, projected_annual_consumption,
				monthly_projected_consumption, months_to_min_stock, reorder_date,
				recommended_order_qty, confidence_level, forecast_method
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			_, err := stmt.ExecContext(ctx,
				rec.ItemID,
				forecastDate,
				rec.AnnualConsumptionRate,
				rec.ProjectedAnnualConsumption,
				rec.MonthlyProjectedConsumption,
				rec.MonthsToMinStock,
				rec.ReorderDate,
				rec.RecommendedOrderQty,
				rec.ConfidenceLevel,
				rec.ForecastMethod,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: item %d: %v", repository.ErrBatchExists, rec.ItemID, err)
				}
				return fmt.Errorf("failed to insert forecast for item %d: %w", rec.ItemID, err)
			}
		}

		log.Debug().
			Time("forecast_date", forecastDate).
			Int("records", len(records)).
			Msg("forecast batch written")

		return nil
	})
}

// GetLatestBatch reads the generation with the maximum forecast date, ordered by months to
// minimum stock. The date is resolved first and every later query is keyed on it, so the
// result never mixes generations.
func (r *forecastRepository) GetLatestBatch(ctx context.Context, filter domain.ForecastFilter) (*domain.ForecastBatch, error) {
	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, `SELECT MAX(forecast_date) FROM inventory_forecast`); err != nil {
		return nil, fmt.Errorf("error getting latest forecast date: %w", err)
	}
	if !latest.Valid {
		return &domain.ForecastBatch{Records: []domain.ForecastRecord{}}, nil
	}

	from := `
		FROM inventory_forecast f
		JOIN items i ON i.id = f.item_id
		WHERE f.forecast_date = $1
	`
	args := []interface{}{latest.Time}

	where, filterArgs := buildForecastFilterClause(filter, 2)
	from += where
	args = append(args, filterArgs...)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from, args...); err != nil {
		return nil, fmt.Errorf("error counting forecast records: %w", err)
	}

	query := `
		SELECT
			f.id, f.item_id, f.forecast_date, f.annual_consumption_rate,
			f.projected_annual_consumption, f.monthly_projected_consumption,
			f.months_to_min_stock, f.reorder_date, f.recommended_order_qty,
			f.confidence_level, f.forecast_method,
			i.name AS item_name, COALESCE(i.category, '') AS category, COALESCE(i.unit, '') AS unit,
			i.current_stock, i.min_stock
	` + from + `
		ORDER BY f.months_to_min_stock ASC, f.item_id ASC
	`

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, offset)
	}

	records := []domain.ForecastRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error getting latest forecast records: %w", err)
	}

	return &domain.ForecastBatch{
		ForecastDate: latest.Time,
		Records:      records,
		Total:        total,
	}, nil
}

func (r *forecastRepository) ListBatchDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT forecast_date
		FROM inventory_forecast
		ORDER BY forecast_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting forecast batch dates: %w", err)
	}

	return dates, nil
}

func (r *forecastRepository) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM inventory_forecast
		WHERE forecast_date < $1
		  AND forecast_date < (SELECT MAX(forecast_date) FROM inventory_forecast)
	`

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("error purging forecast batches: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading purged row count: %w", err)
	}

	return n, nil
}
