package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *itemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) ListItems(ctx context.Context) ([]domain.Item, error) {
	query := `
		SELECT id, name, COALESCE(category, '') AS category,
		       current_stock, min_stock, COALESCE(unit, '') AS unit
		FROM items
		ORDER BY id
	`

	var items []domain.Item
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}

	return items, nil
}

type transactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *transactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListIssueTransactions(ctx context.Context, itemID int64, since time.Time) ([]domain.IssueQuantity, error) {
	query := `
		SELECT quantity, transaction_date
		FROM inventory_transactions
		WHERE item_id = $1
		  AND transaction_type = $2
		  AND transaction_date >= $3
		ORDER BY transaction_date
	`

	var rows []domain.IssueQuantity
	if err := r.db.SelectContext(ctx, &rows, query, itemID, domain.TransactionIssue, since); err != nil {
		return nil, fmt.Errorf("error listing issue transactions for item %d: %w", itemID, err)
	}

	return rows, nil
}
