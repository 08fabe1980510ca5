package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

const syncItemSequenceQuery = `
	SELECT setval(pg_get_serial_sequence('items', 'id'), GREATEST((SELECT MAX(id) FROM items), 1))
`

type ingestRepository struct {
	db *DB
}

func NewIngestRepository(db *DB) *ingestRepository {
	return &ingestRepository{db: db}
}

// UpsertItem inserts or updates an item by id, or by name when the id is zero.
func (r *ingestRepository) UpsertItem(ctx context.Context, item *domain.Item) (int64, error) {
	var id int64

	if item.ID > 0 {
		query := `
			INSERT INTO items (id, name, category, current_stock, min_stock, unit, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (id)
			DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				current_stock = EXCLUDED.current_stock,
				min_stock = EXCLUDED.min_stock,
				unit = EXCLUDED.unit,
				updated_at = NOW()
			RETURNING id
		`
		err := r.db.QueryRowContext(ctx, query,
			item.ID, item.Name, item.Category, item.CurrentStock, item.MinStock, item.Unit,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert item %d: %w", item.ID, err)
		}

		// explicit ids bypass items_id_seq; move it past them so later name-only upserts don't collide
		if _, err := r.db.ExecContext(ctx, syncItemSequenceQuery); err != nil {
			return 0, fmt.Errorf("failed to sync item id sequence: %w", err)
		}
		return id, nil
	}

	query := `
		INSERT INTO items (name, category, current_stock, min_stock, unit, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			category = EXCLUDED.category,
			current_stock = EXCLUDED.current_stock,
			min_stock = EXCLUDED.min_stock,
			unit = EXCLUDED.unit,
			updated_at = NOW()
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		item.Name, item.Category, item.CurrentStock, item.MinStock, item.Unit,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert item %q: %w", item.Name, err)
	}

	return id, nil
}

// InsertTransactions appends transactions in a single transaction and returns the number written.
func (r *ingestRepository) InsertTransactions(ctx context.Context, txns []domain.ConsumptionTransaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	var written int64
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory_transactions (item_id, transaction_type, quantity, transaction_date, notes)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, t := range txns {
			if _, err := stmt.ExecContext(ctx, t.ItemID, t.Type, t.Quantity, t.Date, t.Notes); err != nil {
				return fmt.Errorf("failed to insert transaction for item %d: %w", t.ItemID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}
