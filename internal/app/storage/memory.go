package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/devkekops/paymentopt/internal/app/entity"
)

// MemoryRepo keeps runs in process memory. Used when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		runs: make(map[string]Run),
	}
}

func (r *MemoryRepo) SaveRun(_ context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.RunID]; exists {
		return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
	}
	run.Usage = append([]Usage(nil), run.Usage...)
	run.Unpaid = append([]string(nil), run.Unpaid...)
	run.Outcomes = append([]entity.OrderOutcome(nil), run.Outcomes...)
	r.runs[run.RunID] = run
	return nil
}

func (r *MemoryRepo) GetRun(_ context.Context, runID string) (Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if run, ok := r.runs[runID]; ok {
		return run, nil
	}
	return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

func (r *MemoryRepo) Close() {}
