package executions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sokol111/match-events/pkg/workflow"
)

// MemoryRepository is an in-process workflow.FailureStore.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]workflow.FailedExecution
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[string]workflow.FailedExecution{}}
}

func (r *MemoryRepository) Save(_ context.Context, failed workflow.FailedExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[failed.ID] = failed
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (workflow.FailedExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	failed, ok := r.items[id]
	if !ok {
		return failed, fmt.Errorf("%w: %s", workflow.ErrExecutionNotFound, id)
	}
	return failed, nil
}

func (r *MemoryRepository) List(_ context.Context, filter workflow.ListFilter) ([]workflow.FailedExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]workflow.FailedExecution, 0, len(r.items))
	for _, f := range r.items {
		if f.ResubmittedAt != nil && !filter.IncludeResubmitted {
			continue
		}
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FailedAt.After(result[j].FailedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryRepository) MarkResubmitted(_ context.Context, id, executionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	failed, ok := r.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", workflow.ErrExecutionNotFound, id)
	}
	if failed.ResubmittedAt != nil {
		return fmt.Errorf("%w: %s", workflow.ErrAlreadyResubmitted, id)
	}
	failed.ResubmittedAt = &at
	failed.ResubmittedAs = executionID
	r.items[id] = failed
	return nil
}
