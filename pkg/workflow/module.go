package workflow

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewWorkflowModule provides the Orchestrator and Resubmitter.
// An Enricher, a Storer and a FailureStore must be provided elsewhere.
func NewWorkflowModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideOrchestrator,
			NewResubmitter,
		),
	)
}

func provideOrchestrator(
	cfg Config,
	enricher Enricher,
	storer Storer,
	failures FailureStore,
	log *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Orchestrator, error) {
	sink := MultiSink{
		NewLogSink(log),
		NewFailureSink(failures),
	}
	return NewOrchestrator(cfg, enricher, storer, sink,
		WithLogger(log),
		WithTracerProvider(tp),
		WithMeterProvider(mp),
	)
}
