package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository/memory"
)

const itemsCSV = `Item Name,Category,Current Stock,Min Stock,Unit
Copy paper,office,"1,200",200,ream
Toner,printing,10,50,pcs
,ignored,1,1,pcs
`

const txnsCSV = `item_name,type,qty,date,notes
Copy paper,issue,120,2026-09-01,
toner,,5,2026-09-15T10:00:00Z,monthly
Stapler,issue,1,2026-09-20,
`

func TestReadItems(t *testing.T) {
	items, err := ReadItems(strings.NewReader(itemsCSV))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Copy paper", items[0].Name)
	assert.Equal(t, 1200.0, items[0].CurrentStock)
	assert.Equal(t, 200.0, items[0].MinStock)
	assert.Equal(t, "ream", items[0].Unit)
}

func TestReadItems_Errors(t *testing.T) {
	_, err := ReadItems(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadItems(strings.NewReader("category\noffice\n"))
	assert.ErrorContains(t, err, "no name column")

	_, err = ReadItems(strings.NewReader("name,current_stock\nPaper,-1\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReadTransactions(t *testing.T) {
	rows, err := ReadTransactions(strings.NewReader(txnsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.TransactionIssue, rows[1].Type)
	assert.Equal(t, time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, "monthly", rows[1].Notes)

	_, err = ReadTransactions(strings.NewReader("item_id,quantity,date\n1,2,yesterday\n"))
	assert.ErrorContains(t, err, "unrecognised date")
}

func TestLoader_Load(t *testing.T) {
	itemRepo := memory.NewItemRepository()
	txnRepo := memory.NewTransactionRepository()
	loader := NewLoader(memory.NewIngestRepository(itemRepo, txnRepo))

	items, err := ReadItems(strings.NewReader(itemsCSV))
	require.NoError(t, err)
	rows, err := ReadTransactions(strings.NewReader(txnsCSV))
	require.NoError(t, err)

	stats, err := loader.Load(context.Background(), items, rows)
	require.NoError(t, err)
	assert.Equal(t, Stats{Items: 2, Transactions: 2, Skipped: 1}, stats)

	stored, err := itemRepo.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)

	issues, err := txnRepo.ListIssueTransactions(context.Background(), stored[0].ID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 120.0, issues[0].Quantity)
}
