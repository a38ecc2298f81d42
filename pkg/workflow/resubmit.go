package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyResubmitted is returned when a failed execution was already resubmitted.
var ErrAlreadyResubmitted = errors.New("failed execution already resubmitted")

// Resubmitter re-runs failed executions on operator request.
type Resubmitter struct {
	orchestrator *Orchestrator
	store        FailureStore
	now          func() time.Time
}

func NewResubmitter(orchestrator *Orchestrator, store FailureStore) *Resubmitter {
	return &Resubmitter{orchestrator: orchestrator, store: store, now: time.Now}
}

// Resubmit runs the stored batch of a failed execution as a new execution.
// Once the new outcome is recorded the old record is marked resubmitted,
// whether or not the new execution completed. A new failure is recorded under
// the new execution id.
func (r *Resubmitter) Resubmit(ctx context.Context, id string) (ExecutionResult, error) {
	failed, err := r.store.Get(ctx, id)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("failed to load execution %s: %w", id, err)
	}
	if failed.ResubmittedAt != nil {
		return ExecutionResult{}, fmt.Errorf("%w: %s as %s", ErrAlreadyResubmitted, id, failed.ResubmittedAs)
	}

	result := r.orchestrator.Execute(ctx, failed.Batch)
	if result.Interrupted && result.State == StateFailed {
		return result, fmt.Errorf("resubmission of %s interrupted: %w", id, ctx.Err())
	}
	if result.RecordErr != nil {
		return result, fmt.Errorf("resubmission of %s not recorded: %w", id, result.RecordErr)
	}

	if err := r.store.MarkResubmitted(ctx, id, result.ExecutionID, r.now()); err != nil {
		return result, fmt.Errorf("failed to mark execution %s resubmitted: %w", id, err)
	}
	return result, nil
}
