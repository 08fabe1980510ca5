package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

// ItemRepository provides in-memory item storage
type ItemRepository struct {
	mu     sync.RWMutex
	items  map[int64]domain.Item
	nextID int64
}

func NewItemRepository(items ...domain.Item) *ItemRepository {
	r := &ItemRepository{items: make(map[int64]domain.Item)}
	for _, item := range items {
		_, _ = r.UpsertItem(context.Background(), &item)
	}
	return r
}

var _ repository.ItemRepository = (*ItemRepository)(nil)

// ListItems returns all items ordered by id
func (r *ItemRepository) ListItems(_ context.Context) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items, nil
}

// UpsertItem stores item by id, or by name when the id is zero
func (r *ItemRepository) UpsertItem(_ context.Context, item *domain.Item) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		for id, existing := range r.items {
			if existing.Name == item.Name {
				item.ID = id
				break
			}
		}
	}
	if item.ID == 0 {
		r.nextID++
		item.ID = r.nextID
	}
	if item.ID > r.nextID {
		r.nextID = item.ID
	}

	r.items[item.ID] = *item
	return item.ID, nil
}

// TransactionRepository provides in-memory transaction history
type TransactionRepository struct {
	mu   sync.RWMutex
	txns []domain.ConsumptionTransaction
}

func NewTransactionRepository(txns ...domain.ConsumptionTransaction) *TransactionRepository {
	r := &TransactionRepository{}
	_, _ = r.InsertTransactions(context.Background(), txns)
	return r
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) ListIssueTransactions(ctx context.Context, itemID int64, since time.Time) ([]domain.IssueQuantity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []domain.IssueQuantity
	for _, t := range r.txns {
		if t.ItemID == itemID && t.Type == domain.TransactionIssue && !t.Date.Before(since) {
			rows = append(rows, domain.IssueQuantity{Quantity: t.Quantity, Date: t.Date})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	return rows, nil
}

func (r *TransactionRepository) InsertTransactions(_ context.Context, txns []domain.ConsumptionTransaction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range txns {
		t.ID = int64(len(r.txns) + 1)
		r.txns = append(r.txns, t)
	}
	return int64(len(txns)), nil
}

// IngestRepository writes seed data into the in-memory item and transaction stores
type IngestRepository struct {
	*ItemRepository
	*TransactionRepository
}

func NewIngestRepository(items *ItemRepository, txns *TransactionRepository) *IngestRepository {
	return &IngestRepository{ItemRepository: items, TransactionRepository: txns}
}

var _ repository.IngestRepository = (*IngestRepository)(nil)
