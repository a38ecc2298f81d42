package workflow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResubmitter_Resubmit(t *testing.T) {
	// Arrange
	var healthy atomic.Bool
	storer := &mockStorer{storeFunc: func(context.Context, match.Batch, []match.EnrichedRecord) error {
		if !healthy.Load() {
			return MarkPermanent(errors.New("bucket missing"))
		}
		return nil
	}}
	failures := newMemoryFailures()
	o := newTestOrchestrator(t, testConfig(), &mockEnricher{}, storer, NewFailureSink(failures))
	r := NewResubmitter(o, failures)

	first := o.Execute(context.Background(), testBatch(2))
	require.Equal(t, StateFailed, first.State)
	healthy.Store(true)

	// Act
	result, err := r.Resubmit(context.Background(), first.ExecutionID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.NotEqual(t, first.ExecutionID, result.ExecutionID)
	assert.Equal(t, first.Batch.EventIDs(), result.Batch.EventIDs())

	stored, err := failures.Get(context.Background(), first.ExecutionID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResubmittedAt)
	assert.Equal(t, result.ExecutionID, stored.ResubmittedAs)
}

func TestResubmitter_RejectsSecondResubmission(t *testing.T) {
	// Arrange
	failures := newMemoryFailures()
	require.NoError(t, failures.Save(context.Background(), NewFailedExecution(failedResult())))
	o := newTestOrchestrator(t, testConfig(), &mockEnricher{}, &mockStorer{}, NewFailureSink(failures))
	r := NewResubmitter(o, failures)
	_, err := r.Resubmit(context.Background(), "exec-1")
	require.NoError(t, err)

	// Act
	_, err = r.Resubmit(context.Background(), "exec-1")

	// Assert
	assert.ErrorIs(t, err, ErrAlreadyResubmitted)
}

func TestResubmitter_UnknownExecution(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(), &mockEnricher{}, &mockStorer{}, nil)
	r := NewResubmitter(o, newMemoryFailures())

	_, err := r.Resubmit(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestResubmitter_NewFailureIsRecorded(t *testing.T) {
	// Arrange
	storer := &mockStorer{storeFunc: func(context.Context, match.Batch, []match.EnrichedRecord) error {
		return MarkPermanent(errors.New("still broken"))
	}}
	failures := newMemoryFailures()
	o := newTestOrchestrator(t, testConfig(), &mockEnricher{}, storer, NewFailureSink(failures))
	r := NewResubmitter(o, failures)
	first := o.Execute(context.Background(), testBatch(1))

	// Act
	result, err := r.Resubmit(context.Background(), first.ExecutionID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StateFailed, result.State)
	items, _ := failures.List(context.Background(), ListFilter{IncludeResubmitted: true})
	assert.Len(t, items, 2)
}

func TestResubmitter_UnrecordedFailureKeepsOriginal(t *testing.T) {
	// Arrange
	storer := &mockStorer{storeFunc: func(context.Context, match.Batch, []match.EnrichedRecord) error {
		return MarkPermanent(errors.New("still broken"))
	}}
	failures := newMemoryFailures()
	require.NoError(t, failures.Save(context.Background(), NewFailedExecution(failedResult())))
	o := newTestOrchestrator(t, testConfig(), &mockEnricher{}, storer, NewFailureSink(failures))
	r := NewResubmitter(o, failures)
	failures.saveErr = errors.New("mongo down")

	// Act
	_, err := r.Resubmit(context.Background(), "exec-1")

	// Assert
	require.Error(t, err)
	failures.saveErr = nil
	stored, getErr := failures.Get(context.Background(), "exec-1")
	require.NoError(t, getErr)
	assert.Nil(t, stored.ResubmittedAt)
}
