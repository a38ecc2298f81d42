package consumer

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/tracing"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// dispatcher hands closed batches to the handler, one goroutine per batch,
// bounded by the in-flight semaphore.
type dispatcher struct {
	execCtx   context.Context
	handler   BatchHandler
	sem       *semaphore.Weighted
	tracker   *offsetTracker
	store     func(topic string, partition int32, next int64)
	tracer    tracing.MessageTracer
	batchSize metric.Int64Histogram
	log       *zap.Logger
	wg        sync.WaitGroup
}

// dispatch blocks while the semaphore is saturated. An error means ctx ended
// before the batch was handed over; the batch stays unacknowledged.
func (d *dispatcher) dispatch(ctx context.Context, batch match.Batch, messages []*kafka.Message) error {
	tk := d.tracker.begin(batch.Partition, batch.FirstOffset, batch.LastOffset)

	if batch.Len() == 0 {
		d.log.Warn("window held no decodable events, acknowledging",
			zap.Int32("partition", batch.Partition),
			zap.Int64("first_offset", batch.FirstOffset),
			zap.Int64("last_offset", batch.LastOffset))
		d.ack(batch, tk)
		return nil
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	d.batchSize.Record(ctx, int64(batch.Len()),
		metric.WithAttributes(attribute.Int("partition", int(batch.Partition))))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		d.execute(batch, messages, tk)
	}()
	return nil
}

func (d *dispatcher) execute(batch match.Batch, messages []*kafka.Message, tk *ticket) {
	log := d.log.With(
		zap.Int32("partition", batch.Partition),
		zap.Int64("first_offset", batch.FirstOffset),
		zap.Int64("last_offset", batch.LastOffset),
		zap.Int("events", batch.Len()))

	ctx, span := d.tracer.StartBatchSpan(d.execCtx, batch.Topic, batch.Partition, messages)
	defer span.End()

	err := d.handle(ctx, batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("batch left unacknowledged for redelivery", zap.Error(err))
		return
	}

	d.ack(batch, tk)
	log.Debug("batch acknowledged")
}

func (d *dispatcher) handle(ctx context.Context, batch match.Batch) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("batch handler panic: %v", rec)
		}
	}()
	return d.handler.HandleBatch(ctx, batch)
}

func (d *dispatcher) ack(batch match.Batch, tk *ticket) {
	if next, ok := d.tracker.complete(tk); ok {
		d.store(batch.Topic, batch.Partition, next)
	}
}

// wait blocks until every dispatched batch finished.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
