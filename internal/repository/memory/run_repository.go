package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
	"github.com/kalkulis/inventory-forecast/backend-go/internal/repository"
)

// RunRepository records forecast runs in memory
type RunRepository struct {
	mu   sync.RWMutex
	runs map[int64]domain.ForecastRun
}

func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[int64]domain.ForecastRun)}
}

var _ repository.RunRepository = (*RunRepository)(nil)

func (r *RunRepository) CreateRun(_ context.Context, run *domain.ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run.ID = int64(len(r.runs) + 1)
	r.runs[run.ID] = *run
	return nil
}

func (r *RunRepository) UpdateRun(_ context.Context, run *domain.ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return fmt.Errorf("forecast run %d: %w", run.ID, repository.ErrNotFound)
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *RunRepository) ListRuns(_ context.Context, limit int) ([]domain.ForecastRun, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]domain.ForecastRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}
