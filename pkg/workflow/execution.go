package workflow

import (
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/match"
)

// State of an Execution.
type State string

const (
	StatePending   State = "pending"
	StateEnriching State = "enriching"
	StateStoring   State = "storing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

var transitions = map[State][]State{
	StatePending:   {StateEnriching},
	StateEnriching: {StateStoring, StateFailed},
	StateStoring:   {StateCompleted, StateFailed},
}

// Step is a unit of work of the workflow.
type Step string

const (
	StepEnrich Step = "enrich"
	StepStore  Step = "store"
)

// Execution is one run of the workflow over a batch. It is owned by the
// goroutine that runs it.
type Execution struct {
	ID         string
	Batch      match.Batch
	State      State
	Enriched   []match.EnrichedRecord
	Attempts   map[Step]int
	StartedAt  time.Time
	FinishedAt time.Time
	Err        *StepError
}

func newExecution(id string, batch match.Batch, now time.Time) *Execution {
	return &Execution{
		ID:        id,
		Batch:     batch,
		State:     StatePending,
		Attempts:  make(map[Step]int, 2),
		StartedAt: now,
	}
}

// transition moves the execution to the next state. An illegal move is a bug.
func (e *Execution) transition(to State) {
	for _, allowed := range transitions[e.State] {
		if allowed == to {
			e.State = to
			return
		}
	}
	panic(fmt.Sprintf("workflow: illegal transition %s -> %s", e.State, to))
}

// ExecutionResult is the outcome of an execution.
type ExecutionResult struct {
	ExecutionID string
	Batch       match.Batch
	State       State
	Records     int
	Attempts    map[Step]int
	Err         *StepError
	// Interrupted is set when the caller's context ended before the execution
	// finished; such a batch must be redelivered rather than recorded as failed.
	Interrupted bool
	// RecordErr is set when the result sink failed to persist the outcome.
	RecordErr  error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of the execution.
func (r ExecutionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (e *Execution) result(interrupted bool) ExecutionResult {
	return ExecutionResult{
		ExecutionID: e.ID,
		Batch:       e.Batch,
		State:       e.State,
		Records:     len(e.Enriched),
		Attempts:    e.Attempts,
		Err:         e.Err,
		Interrupted: interrupted,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
	}
}
