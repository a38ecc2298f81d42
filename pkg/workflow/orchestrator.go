// Package workflow drives each consumed batch through Enrich then Store.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Enricher derives one record per event. It must not modify the batch.
type Enricher interface {
	Enrich(ctx context.Context, batch match.Batch) ([]match.EnrichedRecord, error)
}

// Storer persists the raw payloads of a batch and its enriched records.
// It must be idempotent: a retried or redelivered batch overwrites its own records.
type Storer interface {
	Store(ctx context.Context, batch match.Batch, records []match.EnrichedRecord) error
}

type options struct {
	log            *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	now            func() time.Time
	newID          func() string
}

// Option configures an Orchestrator.
type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithClock replaces time.Now (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Orchestrator runs executions. Executions share no mutable state and may run concurrently.
type Orchestrator struct {
	cfg      Config
	enricher Enricher
	storer   Storer
	sink     ResultSink
	log      *zap.Logger
	tracer   trace.Tracer
	metrics  *metrics
	now      func() time.Time
	newID    func() string
}

func NewOrchestrator(cfg Config, enricher Enricher, storer Storer, sink ResultSink, opts ...Option) (*Orchestrator, error) {
	o := options{
		log:            zap.NewNop(),
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:      cfg,
		enricher: enricher,
		storer:   storer,
		sink:     sink,
		log:      o.log.With(zap.String("component", "workflow")),
		tracer:   o.tracerProvider.Tracer("match-events/workflow"),
		metrics:  m,
		now:      o.now,
		newID:    o.newID,
	}, nil
}

// Execute runs Enrich then Store over the batch and reports the terminal state
// to the result sink. Store is never called when Enrich failed.
func (o *Orchestrator) Execute(ctx context.Context, batch match.Batch) ExecutionResult {
	exec := newExecution(o.newID(), batch, o.now())

	ctx, span := o.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.execution_id", exec.ID),
		attribute.Int("messaging.partition", int(batch.Partition)),
		attribute.Int("workflow.batch.size", batch.Len()),
	))
	defer span.End()

	execCtx, cancel := context.WithTimeout(ctx, o.cfg.MaxProcessingTime)
	defer cancel()

	exec.transition(StateEnriching)
	records, serr := runStep(execCtx, o, exec, StepEnrich, func(ctx context.Context) ([]match.EnrichedRecord, error) {
		return o.enricher.Enrich(ctx, batch)
	})
	if serr == nil {
		exec.Enriched = records
		exec.transition(StateStoring)
		_, serr = runStep(execCtx, o, exec, StepStore, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.storer.Store(ctx, batch, records)
		})
	}

	if serr != nil {
		exec.Err = serr
		exec.transition(StateFailed)
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Error())
	} else {
		exec.transition(StateCompleted)
	}
	exec.FinishedAt = o.now()

	result := exec.result(ctx.Err() != nil)
	o.metrics.recordExecution(ctx, result)
	if o.sink != nil {
		if err := o.sink.Record(context.WithoutCancel(ctx), result); err != nil {
			o.log.Error("failed to record execution result",
				zap.String("execution_id", result.ExecutionID), zap.Error(err))
			result.RecordErr = err
		}
	}
	return result
}

// HandleBatch lets the orchestrator serve as the consumer's batch handler.
// Completed and failed executions are acknowledged. An interrupted execution,
// or one whose outcome could not be recorded, is not.
func (o *Orchestrator) HandleBatch(ctx context.Context, batch match.Batch) error {
	result := o.Execute(ctx, batch)
	if result.Interrupted && result.State == StateFailed {
		return ctx.Err()
	}
	if result.RecordErr != nil {
		return fmt.Errorf("execution %s not recorded: %w", result.ExecutionID, result.RecordErr)
	}
	return nil
}
