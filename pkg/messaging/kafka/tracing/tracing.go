// Package tracing carries OpenTelemetry context across Kafka message headers.
package tracing

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// MessageTracer creates spans for produced and consumed messages.
type MessageTracer interface {
	// InjectContext writes the trace context of ctx into the message headers.
	InjectContext(ctx context.Context, message *kafka.Message)

	// ExtractContext reads a trace context from the message headers.
	ExtractContext(ctx context.Context, message *kafka.Message) context.Context

	StartProducerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span)

	// StartBatchSpan starts the consumer span of a dispatched batch, linked to
	// the producer span of every message in it.
	StartBatchSpan(ctx context.Context, topic string, partition int32, messages []*kafka.Message) (context.Context, trace.Span)
}

type messageTracer struct {
	tracer trace.Tracer
}

func NewMessageTracer(tp trace.TracerProvider) MessageTracer {
	return &messageTracer{
		tracer: tp.Tracer("kafka"),
	}
}

func (t *messageTracer) InjectContext(ctx context.Context, message *kafka.Message) {
	headersMap := headersToMap(message.Headers)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headersMap))

	message.Headers = message.Headers[:0]
	for key, value := range headersMap {
		message.Headers = append(message.Headers, kafka.Header{
			Key:   key,
			Value: []byte(value),
		})
	}
}

func (t *messageTracer) ExtractContext(ctx context.Context, message *kafka.Message) context.Context {
	if len(message.Headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headersToMap(message.Headers)))
}

func (t *messageTracer) StartProducerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "kafka.produce",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topicOf(message)),
			attribute.String("messaging.message.key", string(message.Key)),
		),
	)
}

func (t *messageTracer) StartBatchSpan(ctx context.Context, topic string, partition int32, messages []*kafka.Message) (context.Context, trace.Span) {
	links := make([]trace.Link, 0, len(messages))
	for _, m := range messages {
		sc := trace.SpanContextFromContext(t.ExtractContext(context.Background(), m))
		if sc.IsValid() {
			links = append(links, trace.Link{SpanContext: sc})
		}
	}

	return t.tracer.Start(ctx, "kafka.consume_batch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithLinks(links...),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.Int("messaging.partition", int(partition)),
			attribute.Int("messaging.batch.message_count", len(messages)),
		),
	)
}

func headersToMap(headers []kafka.Header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}

func topicOf(message *kafka.Message) string {
	if message.TopicPartition.Topic == nil {
		return ""
	}
	return *message.TopicPartition.Topic
}
