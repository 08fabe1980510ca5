package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/pipeline"
)

// printResult writes the run summary followed by the items to reorder within three months.
func printResult(out io.Writer, result *pipeline.BatchResult) {
	if result.NothingToForecast {
		fmt.Fprintln(out, "No items to forecast.")
		return
	}

	fmt.Fprintf(out, "Forecast %s (reference %s)\n",
		result.ForecastDate.Format("2006-01-02 15:04:05"), result.ReferenceDate.Format(dateLayout))
	fmt.Fprintf(out, "  items:               %d/%d\n", result.ProcessedItems, result.TotalItems)
	fmt.Fprintf(out, "  reorder in 3 months: %d\n", result.ReorderWithin3Months)
	fmt.Fprintf(out, "  average confidence:  %.2f\n", result.AverageConfidence)
	fmt.Fprintf(out, "  high confidence:     %d\n", result.HighConfidence)
	for _, f := range result.Skipped {
		fmt.Fprintf(out, "  skipped item %d (%s): %s\n", f.ItemID, f.Stage, f.Error)
	}

	var reorder []domain.ForecastRecord
	for _, rec := range result.Records {
		if rec.NeedsReorder() {
			reorder = append(reorder, rec)
		}
	}
	if len(reorder) == 0 {
		return
	}

	fmt.Fprintln(out, "\nItems to reorder within 3 months:")
	writeRecords(out, reorder)
}

func printBatch(out io.Writer, batch *domain.ForecastBatch) {
	if batch.Empty() {
		fmt.Fprintln(out, "No forecast has been run yet.")
		return
	}

	fmt.Fprintf(out, "Forecast %s: showing %d of %d items\n",
		batch.ForecastDate.Format("2006-01-02 15:04:05"), len(batch.Records), batch.Total)
	writeRecords(out, batch.Records)
}

func writeRecords(out io.Writer, records []domain.ForecastRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tNAME\tSTOCK\tMIN\tMONTHS\tREORDER DATE\tQTY\tCONFIDENCE\tMETHOD")
	for _, r := range records {
		months := "-"
		if domain.IsForeseeable(r.MonthsToMinStock) {
			months = fmt.Sprintf("%.2f", r.MonthsToMinStock)
		}
		reorderDate := "-"
		if r.ReorderDate != nil {
			reorderDate = r.ReorderDate.Format(dateLayout)
		}
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%.0f\t%s\t%s\t%d\t%.2f\t%s\n",
			r.ItemID, r.ItemName, r.CurrentStock, r.MinStock, months, reorderDate,
			r.RecommendedOrderQty, r.ConfidenceLevel, domain.ForecastMethodLabel(r.ForecastMethod))
	}
	_ = w.Flush()
}
