package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
)

func TestPrintResult_ListsOnlyReorderItems(t *testing.T) {
	reorderDate := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	result := &pipeline.BatchResult{
		ForecastDate:         time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC),
		ReferenceDate:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		TotalItems:           2,
		ProcessedItems:       2,
		ReorderWithin3Months: 1,
		Records: []domain.ForecastRecord{
			{ItemID: 1, ItemName: "Toner", MonthsToMinStock: 0.5, ReorderDate: &reorderDate, RecommendedOrderQty: 40, ForecastMethod: domain.MethodDefaultHeuristic},
			{ItemID: 2, ItemName: "Soap", MonthsToMinStock: domain.NoDepletionSentinel},
		},
	}

	var buf bytes.Buffer
	printResult(&buf, result)

	out := buf.String()
	assert.Contains(t, out, "items:               2/2")
	assert.Contains(t, out, "Toner")
	assert.Contains(t, out, "2026-10-15")
	assert.NotContains(t, out, "Soap")
}

func TestPrintBatch_Empty(t *testing.T) {
	var buf bytes.Buffer
	printBatch(&buf, &domain.ForecastBatch{})
	assert.Equal(t, "No forecast has been run yet.\n", buf.String())
}
