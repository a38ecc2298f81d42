package workflow

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	executions metric.Int64Counter
	attempts   metric.Int64Counter
	duration   metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter("match-events/workflow")

	executions, err := meter.Int64Counter("workflow.executions",
		metric.WithDescription("Finished workflow executions by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create executions counter: %w", err)
	}

	attempts, err := meter.Int64Counter("workflow.step.attempts",
		metric.WithDescription("Step attempts by step and result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create step attempts counter: %w", err)
	}

	duration, err := meter.Float64Histogram("workflow.execution.duration",
		metric.WithDescription("Wall time of a workflow execution"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create execution duration histogram: %w", err)
	}

	return &metrics{executions: executions, attempts: attempts, duration: duration}, nil
}

func (m *metrics) recordAttempt(ctx context.Context, step Step, err error) {
	result := "success"
	switch {
	case err == nil:
	case IsPermanent(err):
		result = "permanent"
	default:
		result = "transient"
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", string(step)),
		attribute.String("result", result),
	))
}

func (m *metrics) recordExecution(ctx context.Context, r ExecutionResult) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome(r)))
	m.executions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, r.Duration().Seconds(), attrs)
}

func outcome(r ExecutionResult) string {
	switch {
	case r.Interrupted && r.State == StateFailed:
		return "interrupted"
	case r.State == StateCompleted:
		return "completed"
	default:
		return "failed"
	}
}
