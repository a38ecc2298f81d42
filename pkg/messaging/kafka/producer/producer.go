// Package producer publishes encoded match events to Kafka.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/messaging/kafka/tracing"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Publisher writes a record to a topic and waits for its delivery report.
type Publisher interface {
	// Publish sends value to topic. partitionHint pins the partition; nil lets the
	// partitioner choose by key. There is no ordering across partitions.
	Publish(ctx context.Context, topic string, partitionHint *int32, key, value []byte) error
}

// kafkaProducer is the subset of *kafka.Producer used by the publisher.
type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

type producer struct {
	producer    kafkaProducer
	sendTimeout time.Duration
	tracer      tracing.MessageTracer
	log         *zap.Logger
}

func newProducer(p kafkaProducer, sendTimeout time.Duration, tracer tracing.MessageTracer, log *zap.Logger) *producer {
	return &producer{
		producer:    p,
		sendTimeout: sendTimeout,
		tracer:      tracer,
		log:         log,
	}
}

func (p *producer) Publish(ctx context.Context, topic string, partitionHint *int32, key, value []byte) error {
	partition := kafka.PartitionAny
	if partitionHint != nil {
		partition = *partitionHint
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: partition},
		Key:            key,
		Value:          value,
	}

	ctx, span := p.tracer.StartProducerSpan(ctx, msg)
	defer span.End()
	p.tracer.InjectContext(ctx, msg)

	if err := p.publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *producer) publish(ctx context.Context, msg *kafka.Message) error {
	topic := *msg.TopicPartition.Topic
	deliveryChan := make(chan kafka.Event, 1)

	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return wrapPublishError(topic, fmt.Errorf("failed to send message to topic %s: %w", topic, err))
	}

	timer := time.NewTimer(p.sendTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return &PublishError{Kind: KindTimeout, Topic: topic, Err: ctx.Err()}
	case <-timer.C:
		return &PublishError{Kind: KindTimeout, Topic: topic,
			Err: fmt.Errorf("no delivery report within %v", p.sendTimeout)}
	case ev := <-deliveryChan:
		return p.handleDelivery(topic, ev)
	}
}

func (p *producer) handleDelivery(topic string, ev kafka.Event) error {
	switch e := ev.(type) {
	case *kafka.Message:
		if e.TopicPartition.Error != nil {
			return wrapPublishError(topic, fmt.Errorf("delivery failed: %w", e.TopicPartition.Error))
		}
		p.log.Debug("message delivered",
			zap.String("topic", topic),
			zap.Int32("partition", e.TopicPartition.Partition),
			zap.Int64("offset", int64(e.TopicPartition.Offset)))
		return nil
	case kafka.Error:
		return wrapPublishError(topic, e)
	default:
		return &PublishError{Kind: KindUnknown, Topic: topic, Err: fmt.Errorf("unexpected delivery event %T", ev)}
	}
}
