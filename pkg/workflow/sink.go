package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/match"
	"go.uber.org/zap"
)

// ResultSink receives every finished execution. An error means the outcome
// could not be persisted and the batch must not be acknowledged.
type ResultSink interface {
	Record(ctx context.Context, result ExecutionResult) error
}

// ErrExecutionNotFound is returned by a FailureStore for an unknown id.
var ErrExecutionNotFound = errors.New("failed execution not found")

// FailedExecution is what the failure store keeps about a failed execution.
// The whole batch is kept so the execution can be resubmitted.
type FailedExecution struct {
	ID            string      `bson:"_id" json:"id"`
	Batch         match.Batch `bson:"batch" json:"batch"`
	Step          Step        `bson:"step" json:"step"`
	Kind          string      `bson:"kind" json:"kind"`
	Attempts      int         `bson:"attempts" json:"attempts"`
	Error         string      `bson:"error" json:"error"`
	StartedAt     time.Time   `bson:"startedAt" json:"started_at"`
	FailedAt      time.Time   `bson:"failedAt" json:"failed_at"`
	ResubmittedAt *time.Time  `bson:"resubmittedAt,omitempty" json:"resubmitted_at,omitempty"`
	ResubmittedAs string      `bson:"resubmittedAs,omitempty" json:"resubmitted_as,omitempty"`
}

// ListFilter narrows FailureStore.List.
type ListFilter struct {
	Limit              int
	IncludeResubmitted bool
}

// FailureStore persists failed executions for inspection and manual resubmission.
type FailureStore interface {
	Save(ctx context.Context, failed FailedExecution) error
	Get(ctx context.Context, id string) (FailedExecution, error)
	List(ctx context.Context, filter ListFilter) ([]FailedExecution, error)
	MarkResubmitted(ctx context.Context, id, executionID string, at time.Time) error
}

// NewFailedExecution builds the stored form of a failed result.
func NewFailedExecution(r ExecutionResult) FailedExecution {
	f := FailedExecution{
		ID:        r.ExecutionID,
		Batch:     r.Batch,
		StartedAt: r.StartedAt,
		FailedAt:  r.FinishedAt,
	}
	if r.Err != nil {
		f.Step = r.Err.Step
		f.Kind = r.Err.Kind.String()
		f.Attempts = r.Err.Attempts
		f.Error = r.Err.Err.Error()
	}
	return f
}

type logSink struct {
	log *zap.Logger
}

// NewLogSink logs completed executions at debug and failed ones at error.
func NewLogSink(log *zap.Logger) ResultSink {
	return &logSink{log: log}
}

func (s *logSink) Record(_ context.Context, r ExecutionResult) error {
	fields := []zap.Field{
		zap.String("execution_id", r.ExecutionID),
		zap.Int32("partition", r.Batch.Partition),
		zap.Int64("first_offset", r.Batch.FirstOffset),
		zap.Int64("last_offset", r.Batch.LastOffset),
		zap.Int("events", r.Batch.Len()),
		zap.Duration("duration", r.Duration()),
	}

	switch {
	case r.State == StateCompleted:
		s.log.Debug("execution completed", append(fields, zap.Int("records", r.Records))...)
	case r.Interrupted:
		s.log.Warn("execution interrupted, batch left for redelivery", append(fields, zap.Error(r.Err))...)
	default:
		s.log.Error("execution failed", append(fields, zap.Error(r.Err))...)
	}
	return nil
}

type failureSink struct {
	store FailureStore
}

// NewFailureSink saves failed executions to store. Interrupted executions are
// skipped since their batch is redelivered.
func NewFailureSink(store FailureStore) ResultSink {
	return &failureSink{store: store}
}

func (s *failureSink) Record(ctx context.Context, r ExecutionResult) error {
	if r.State != StateFailed || r.Interrupted {
		return nil
	}
	if err := s.store.Save(ctx, NewFailedExecution(r)); err != nil {
		return fmt.Errorf("failed to save failed execution %s: %w", r.ExecutionID, err)
	}
	return nil
}

// MultiSink fans a result out to several sinks in order. Every sink is called;
// their errors are joined.
type MultiSink []ResultSink

func (m MultiSink) Record(ctx context.Context, r ExecutionResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
