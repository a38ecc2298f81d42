package consumer

import (
	"github.com/Sokol111/match-events/pkg/core/health"
	"github.com/Sokol111/match-events/pkg/core/worker"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const consumerComponent = "kafka-consumer"

// NewConsumerModule runs the BatchConsumer for the lifetime of the application.
// A BatchHandler must be provided elsewhere.
func NewConsumerModule() fx.Option {
	return fx.Options(
		fx.Provide(provideBatchConsumer),
		worker.Register[*BatchConsumer]("batch-consumer"),
	)
}

func provideBatchConsumer(
	conf config.Config,
	handler BatchHandler,
	log *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	componentMgr health.ComponentManager,
) (*BatchConsumer, error) {
	markReady := componentMgr.AddComponent(consumerComponent)

	return NewBatchConsumer(conf, NewConfluentSource(conf), handler,
		WithLogger(log),
		WithTracerProvider(tp),
		WithMeterProvider(mp),
		WithReadyFunc(markReady),
		WithHealthFunc(func(err error) { componentMgr.SetDegraded(consumerComponent, err) }),
	)
}
