package producer

import (
	"context"
	"fmt"

	"github.com/Sokol111/match-events/pkg/core/health"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/tracing"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewProducerModule provides a Publisher backed by a confluent producer.
func NewProducerModule() fx.Option {
	return fx.Provide(
		provideProducer,
	)
}

func provideProducer(lc fx.Lifecycle, log *zap.Logger, conf config.Config, tp trace.TracerProvider, readiness health.ComponentManager) (Publisher, error) {
	log = log.With(zap.String("component", "producer"))

	kp, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  conf.Brokers,
		"acks":               conf.Producer.Acks,
		"enable.idempotence": conf.Producer.Acks == "all" || conf.Producer.Acks == "-1",
		"message.timeout.ms": int(conf.Producer.SendTimeout.Milliseconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	p := newProducer(kp, conf.Producer.SendTimeout, tracing.NewMessageTracer(tp), log)

	markReady := readiness.AddComponent("kafka-producer")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := waitForTopic(ctx, kp, conf.Topic.Name, log, conf.Producer.TopicWaitTimeout, *conf.Producer.FailOnMissingTopic); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if remaining := kp.Flush(int(conf.Producer.SendTimeout.Milliseconds())); remaining > 0 {
				log.Warn("producer closed with undelivered messages", zap.Int("remaining", remaining))
			}
			kp.Close()
			return nil
		},
	})

	return p, nil
}
