package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsErrorsInsteadOfExiting(t *testing.T) {
	err := run(context.Background(), []string{"forecast", "run", "--dry-run"})
	assert.ErrorContains(t, err, "--dry-run needs --items")

	err = run(context.Background(), []string{"forecast", "run", "--dry-run", "--items", "x.csv", "--reference-date", "01/10/2026"})
	assert.ErrorContains(t, err, "invalid --reference-date")
}

func TestRun_DryRunFromCSV(t *testing.T) {
	dir := t.TempDir()
	items := filepath.Join(dir, "items.csv")
	txns := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(items, []byte("name,current_stock,min_stock\nToner,10,50\nPaper,100,20\n"), 0o644))
	require.NoError(t, os.WriteFile(txns, []byte("item_name,quantity,transaction_date\nPaper,120,2026-09-01\nToner,-4,2026-09-10\n"), 0o644))

	err := run(context.Background(), []string{
		"forecast", "run", "--dry-run",
		"--items", items, "--transactions", txns,
		"--reference-date", "2026-10-01",
	})
	assert.NoError(t, err)
}
