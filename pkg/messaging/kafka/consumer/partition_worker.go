package consumer

import (
	"context"
	"time"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	minTick = 10 * time.Millisecond
	maxTick = 250 * time.Millisecond
)

// partitionWorker owns the accumulator of one assigned partition.
type partitionWorker struct {
	partition  int32
	in         chan *kafka.Message
	acc        *accumulator
	dispatcher *dispatcher
	decode     func([]byte) (match.Event, error)
	tick       time.Duration
	log        *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func tickFor(window time.Duration) time.Duration {
	return min(max(window/10, minTick), maxTick)
}

// run appends incoming messages and closes the window on size or on the
// periodic tick. The open window is dropped when ctx ends.
func (w *partitionWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if w.acc.isOpen() {
				w.log.Debug("discarding open window", zap.Int("events", len(w.acc.events)))
				w.acc.reset()
			}
			return
		case msg := <-w.in:
			w.append(msg)
			if !w.closeIfDue(ctx) {
				return
			}
		case <-ticker.C:
			if !w.closeIfDue(ctx) {
				return
			}
		}
	}
}

func (w *partitionWorker) append(msg *kafka.Message) {
	event, err := w.decode(msg.Value)
	if err != nil {
		w.log.Error("skipping undecodable message",
			zap.Int64("offset", int64(msg.TopicPartition.Offset)),
			zap.Error(err))
		w.acc.add(msg, nil, time.Now())
		return
	}
	w.acc.add(msg, &event, time.Now())
}

// closeIfDue returns false when the worker must stop.
func (w *partitionWorker) closeIfDue(ctx context.Context) bool {
	now := time.Now()
	if !w.acc.shouldClose(now) {
		return true
	}

	batch, messages := w.acc.take(now)
	if err := w.dispatcher.dispatch(ctx, batch, messages); err != nil {
		w.log.Debug("dispatch cancelled, batch left for redelivery",
			zap.Int64("first_offset", batch.FirstOffset), zap.Error(err))
		return false
	}
	return true
}

func (w *partitionWorker) stop() {
	w.cancel()
	<-w.done
}
