package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

// ForecastRepository keeps forecast generations in memory, oldest first
type ForecastRepository struct {
	mu          sync.RWMutex
	generations []generation
	nextID      int64
}

type generation struct {
	date    time.Time
	records []domain.ForecastRecord
}

func NewForecastRepository() *ForecastRepository {
	return &ForecastRepository{}
}

var _ repository.ForecastRepository = (*ForecastRepository)(nil)

func (r *ForecastRepository) ReplaceLatestBatch(ctx context.Context, forecastDate time.Time, records []domain.ForecastRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.generations); n > 0 && !forecastDate.After(r.generations[n-1].date) {
		return fmt.Errorf("%w: %s", repository.ErrBatchExists, forecastDate.Format(time.RFC3339Nano))
	}

	stored := make([]domain.ForecastRecord, len(records))
	for i, rec := range records {
		r.nextID++
		rec.ID = r.nextID
		rec.ForecastDate = forecastDate
		stored[i] = rec
	}
	r.generations = append(r.generations, generation{date: forecastDate, records: stored})

	return nil
}

func (r *ForecastRepository) GetLatestBatch(_ context.Context, filter domain.ForecastFilter) (*domain.ForecastBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.generations) == 0 {
		return &domain.ForecastBatch{Records: []domain.ForecastRecord{}}, nil
	}
	latest := r.generations[len(r.generations)-1]

	records := []domain.ForecastRecord{}
	for _, rec := range latest.records {
		if matches(rec, filter) {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].MonthsToMinStock != records[j].MonthsToMinStock {
			return records[i].MonthsToMinStock < records[j].MonthsToMinStock
		}
		return records[i].ItemID < records[j].ItemID
	})

	total := len(records)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start > total {
			start = total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		records = records[start:end]
	}

	return &domain.ForecastBatch{ForecastDate: latest.date, Records: records, Total: total}, nil
}

func (r *ForecastRepository) ListBatchDates(_ context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var dates []time.Time
	for i := len(r.generations) - 1; i >= 0 && len(dates) < limit; i-- {
		dates = append(dates, r.generations[i].date)
	}
	return dates, nil
}

func (r *ForecastRepository) PurgeBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.generations) == 0 {
		return 0, nil
	}

	var purged int64
	kept := r.generations[:0]
	last := len(r.generations) - 1
	for i, g := range r.generations {
		if i != last && g.date.Before(before) {
			purged += int64(len(g.records))
			continue
		}
		kept = append(kept, g)
	}
	r.generations = kept

	return purged, nil
}

func matches(rec domain.ForecastRecord, filter domain.ForecastFilter) bool {
	if categories := nonEmpty(filter.Categories); len(categories) > 0 && !contains(categories, rec.Category) {
		return false
	}
	if filter.MaxMonths != nil && rec.MonthsToMinStock > *filter.MaxMonths {
		return false
	}
	if filter.MinConfidence != nil && rec.ConfidenceLevel < *filter.MinConfidence {
		return false
	}
	return true
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
