// Package ingest loads items and consumption transactions from CSV exports.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

const insertChunkSize = 1000

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// TransactionRow is a parsed transaction line; the item is referenced by id or by name.
type TransactionRow struct {
	ItemID   int64
	ItemName string
	domain.ConsumptionTransaction
}

// Stats reports what a load wrote.
type Stats struct {
	Items        int   `json:"items"`
	Transactions int64 `json:"transactions"`
	Skipped      int   `json:"skipped"`
}

type Loader struct {
	repo repository.IngestRepository
}

func NewLoader(repo repository.IngestRepository) *Loader {
	return &Loader{repo: repo}
}

// LoadFiles upserts the items file, then inserts the transactions file. Either path may be empty.
func (l *Loader) LoadFiles(ctx context.Context, itemsPath, transactionsPath string) (Stats, error) {
	var (
		items []domain.Item
		rows  []TransactionRow
		err   error
	)
	if itemsPath != "" {
		if items, err = readFile(itemsPath, ReadItems); err != nil {
			return Stats{}, err
		}
	}
	if transactionsPath != "" {
		if rows, err = readFile(transactionsPath, ReadTransactions); err != nil {
			return Stats{}, err
		}
	}

	return l.Load(ctx, items, rows)
}

// Load upserts items and inserts transactions whose item can be resolved.
// Rows naming an unknown item are skipped and counted.
func (l *Loader) Load(ctx context.Context, items []domain.Item, rows []TransactionRow) (Stats, error) {
	var stats Stats
	idsByName := make(map[string]int64, len(items))

	for i := range items {
		id, err := l.repo.UpsertItem(ctx, &items[i])
		if err != nil {
			return stats, fmt.Errorf("failed to upsert item %q: %w", items[i].Name, err)
		}
		idsByName[strings.ToLower(items[i].Name)] = id
		stats.Items++
	}

	txns := make([]domain.ConsumptionTransaction, 0, len(rows))
	for _, row := range rows {
		txn := row.ConsumptionTransaction
		switch {
		case row.ItemID > 0:
			txn.ItemID = row.ItemID
		case row.ItemName != "":
			id, ok := idsByName[strings.ToLower(row.ItemName)]
			if !ok {
				log.Warn().Str("item_name", row.ItemName).Msg("ingest: skipping transaction for unknown item")
				stats.Skipped++
				continue
			}
			txn.ItemID = id
		default:
			stats.Skipped++
			continue
		}
		txns = append(txns, txn)
	}

	for start := 0; start < len(txns); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(txns) {
			end = len(txns)
		}
		n, err := l.repo.InsertTransactions(ctx, txns[start:end])
		if err != nil {
			return stats, fmt.Errorf("failed to insert transactions: %w", err)
		}
		stats.Transactions += n
	}

	log.Info().
		Int("items", stats.Items).
		Int64("transactions", stats.Transactions).
		Int("skipped", stats.Skipped).
		Msg("ingest completed")

	return stats, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out, nil
}

type table struct {
	header []string
	rows   [][]string
}

func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return &table{header: header, rows: rows}, nil
}

func (t *table) colIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseNumber(v string) (float64, error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

// ReadItems parses an items CSV with columns name, category, current_stock, min_stock, unit
// and an optional id.
func ReadItems(r io.Reader) ([]domain.Item, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	idxID := t.colIndex("id", "item_id")
	idxName := t.colIndex("name", "item_name", "nama")
	idxCategory := t.colIndex("category", "kategori")
	idxStock := t.colIndex("current_stock", "stock", "stok")
	idxMin := t.colIndex("min_stock", "minimum_stock")
	idxUnit := t.colIndex("unit", "satuan")
	if idxName < 0 {
		return nil, fmt.Errorf("items file has no name column")
	}

	items := make([]domain.Item, 0, len(t.rows))
	for i, record := range t.rows {
		line := i + 2
		name := cell(record, idxName)
		if name == "" {
			continue
		}

		item := domain.Item{
			Name:     name,
			Category: cell(record, idxCategory),
			Unit:     cell(record, idxUnit),
		}
		if raw := cell(record, idxID); raw != "" {
			if item.ID, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid id %q", line, raw)
			}
		}
		if item.CurrentStock, err = parseNumber(cell(record, idxStock)); err != nil {
			return nil, fmt.Errorf("line %d: invalid current_stock: %w", line, err)
		}
		if item.MinStock, err = parseNumber(cell(record, idxMin)); err != nil {
			return nil, fmt.Errorf("line %d: invalid min_stock: %w", line, err)
		}
		if item.CurrentStock < 0 || item.MinStock < 0 {
			return nil, fmt.Errorf("line %d: stock levels must not be negative", line)
		}
		items = append(items, item)
	}

	return items, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

// ReadTransactions parses a transactions CSV. transaction_type defaults to issue.
func ReadTransactions(r io.Reader) ([]TransactionRow, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	idxItemID := t.colIndex("item_id")
	idxItemName := t.colIndex("item_name", "name")
	idxType := t.colIndex("transaction_type", "type")
	idxQty := t.colIndex("quantity", "qty")
	idxDate := t.colIndex("transaction_date", "date")
	idxNotes := t.colIndex("notes")
	if idxItemID < 0 && idxItemName < 0 {
		return nil, fmt.Errorf("transactions file needs an item_id or item_name column")
	}
	if idxQty < 0 || idxDate < 0 {
		return nil, fmt.Errorf("transactions file needs quantity and transaction_date columns")
	}

	rows := make([]TransactionRow, 0, len(t.rows))
	for i, record := range t.rows {
		line := i + 2
		row := TransactionRow{ItemName: cell(record, idxItemName)}
		if raw := cell(record, idxItemID); raw != "" {
			if row.ItemID, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid item_id %q", line, raw)
			}
		}

		txnType := domain.TransactionType(strings.ToLower(cell(record, idxType)))
		if txnType == "" {
			txnType = domain.TransactionIssue
		}
		row.Type = txnType

		if row.Quantity, err = parseNumber(cell(record, idxQty)); err != nil {
			return nil, fmt.Errorf("line %d: invalid quantity: %w", line, err)
		}
		if row.Date, err = parseDate(cell(record, idxDate)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.Notes = cell(record, idxNotes)

		rows = append(rows, row)
	}

	return rows, nil
}
