package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type attemptResult[T any] struct {
	value T
	err   error
}

// runStep runs fn with a per-attempt timeout and retries transient failures
// with exponential backoff up to the retry limit.
func runStep[T any](ctx context.Context, o *Orchestrator, exec *Execution, step Step, fn func(ctx context.Context) (T, error)) (T, *StepError) {
	var value T
	log := o.log.With(zap.String("execution_id", exec.ID), zap.String("step", string(step)))

	operation := func() error {
		exec.Attempts[step]++
		v, err := attempt(ctx, o.cfg.StepTimeout, fn)
		o.metrics.recordAttempt(ctx, step, err)
		if err != nil {
			if IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Warn("step attempt failed, retrying",
			zap.Int("attempt", exec.Attempts[step]),
			zap.Int("max_attempts", o.cfg.RetryLimit),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	err := backoff.RetryNotify(operation, o.retryBackOff(ctx), notify)
	if err == nil {
		return value, nil
	}

	kind := Transient
	if IsPermanent(err) {
		kind = Permanent
	}
	return value, &StepError{Step: step, Kind: kind, Attempts: exec.Attempts[step], Err: err}
}

// attempt runs fn once. The step goroutine is abandoned when the timeout fires
// so a collaborator ignoring its context cannot stall the execution.
func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult[T], 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- attemptResult[T]{err: MarkPermanent(&PanicError{Value: rec, Stack: debug.Stack()})}
			}
		}()
		v, err := fn(stepCtx)
		done <- attemptResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return r.value, fmt.Errorf("%w after %v: %w", ErrStepTimeout, timeout, r.err)
		}
		return r.value, r.err
	case <-stepCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w after %v", ErrStepTimeout, timeout)
	}
}

func (o *Orchestrator) retryBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.cfg.InitialBackoff
	b.MaxInterval = o.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(o.cfg.RetryLimit-1)), ctx)
}
