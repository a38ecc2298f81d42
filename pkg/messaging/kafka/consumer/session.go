package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// session is the lifetime of one broker connection. All fields except the
// dispatcher are only touched by the read loop goroutine; the rebalance
// callback runs inside ReadMessage on that same goroutine.
type session struct {
	ctx        context.Context
	c          *BatchConsumer
	src        MessageSource
	tracker    *offsetTracker
	dispatcher *dispatcher
	workers    map[int32]*partitionWorker
	group      errgroup.Group
}

func newSession(ctx context.Context, c *BatchConsumer, src MessageSource) *session {
	s := &session{
		ctx:     ctx,
		c:       c,
		src:     src,
		tracker: newOffsetTracker(),
		workers: make(map[int32]*partitionWorker),
	}
	s.dispatcher = &dispatcher{
		execCtx:   ctx,
		handler:   c.handler,
		sem:       c.sem,
		tracker:   s.tracker,
		store:     s.storeOffset,
		tracer:    c.tracer,
		batchSize: c.batchSize,
		log:       c.log,
	}
	return s
}

func (s *session) run() (bool, error) {
	log := s.c.log
	log.Info("subscribing to topic")
	if err := s.src.SubscribeTopics([]string{s.c.topic}, s.rebalance); err != nil {
		return false, connectionLost(fmt.Errorf("failed to subscribe: %w", err))
	}
	s.c.markReady()

	received := false
	var downSince time.Time

	for {
		if err := s.c.waitCapacity(s.ctx); err != nil {
			return received, nil
		}

		msg, err := s.src.ReadMessage(s.c.cfg.PollTimeout)
		if s.ctx.Err() != nil {
			return received, nil
		}

		if rerr := classifyReadError(err); rerr != nil {
			switch {
			case rerr.isTimeout():
			case rerr.isFatal():
				return received, connectionLost(rerr)
			case rerr.isConnectionError():
				if downSince.IsZero() {
					downSince = time.Now()
					s.c.brokerDown(rerr)
				}
				s.c.throttler.Warn(rerr.errorKey, rerr.description, zap.Error(err))
			default:
				s.c.throttler.Warn(rerr.errorKey, rerr.description, zap.Error(err))
			}

			if !downSince.IsZero() && time.Since(downSince) > s.c.cfg.SessionTimeout {
				return received, connectionLost(fmt.Errorf("brokers unreachable for %v: %w",
					time.Since(downSince).Round(time.Millisecond), err))
			}
			continue
		}

		received = true
		s.c.brokerUp()
		if !downSince.IsZero() {
			s.c.throttler.Recovered(brokerConnectionKey, "broker connection restored",
				zap.Duration("down_for", time.Since(downSince).Round(time.Millisecond)))
			downSince = time.Time{}
		}
		s.route(msg)
	}
}

func (s *session) route(msg *kafka.Message) {
	partition := msg.TopicPartition.Partition
	w, ok := s.workers[partition]
	if !ok {
		w = s.startWorker(partition)
	}

	select {
	case w.in <- msg:
	case <-s.ctx.Done():
	}
}

func (s *session) rebalance(_ *kafka.Consumer, ev kafka.Event) error {
	switch e := ev.(type) {
	case kafka.AssignedPartitions:
		logPartitionEvent(s.c.log, "partitions assigned", e.Partitions)
		for _, tp := range e.Partitions {
			if _, ok := s.workers[tp.Partition]; !ok {
				s.startWorker(tp.Partition)
			}
		}
	case kafka.RevokedPartitions:
		logPartitionEvent(s.c.log, "partitions revoked", e.Partitions)
		for _, tp := range e.Partitions {
			s.stopWorker(tp.Partition)
		}
	}
	return nil
}

func (s *session) startWorker(partition int32) *partitionWorker {
	ctx, cancel := context.WithCancel(s.ctx)
	w := &partitionWorker{
		partition:  partition,
		in:         make(chan *kafka.Message, s.c.cfg.MaxBatchSize),
		acc:        newAccumulator(s.c.topic, partition, s.c.cfg.MaxBatchSize, s.c.cfg.MaxBatchWindow),
		dispatcher: s.dispatcher,
		decode:     s.c.codec.Decode,
		tick:       tickFor(s.c.cfg.MaxBatchWindow),
		log:        s.c.log.With(zap.Int32("partition", partition)),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.workers[partition] = w
	s.group.Go(func() error {
		w.run(ctx)
		return nil
	})
	return w
}

// stopWorker drops the open window of a partition. Batches already dispatched
// keep running but can no longer move the partition's offset.
func (s *session) stopWorker(partition int32) {
	w, ok := s.workers[partition]
	if !ok {
		return
	}
	w.stop()
	delete(s.workers, partition)
	s.tracker.forget(partition)
}

func (s *session) storeOffset(topic string, partition int32, next int64) {
	tp := kafka.TopicPartition{Topic: &topic, Partition: partition, Offset: kafka.Offset(next)}
	if _, err := s.src.StoreOffsets([]kafka.TopicPartition{tp}); err != nil {
		s.c.log.Warn("failed to store offset",
			zap.Int32("partition", partition), zap.Int64("offset", next), zap.Error(err))
	}
}

// close drops open windows, waits for dispatched batches, commits the stored
// offsets and closes the connection.
func (s *session) close() {
	for _, w := range s.workers {
		w.cancel()
	}
	_ = s.group.Wait()
	s.workers = make(map[int32]*partitionWorker)

	s.dispatcher.wait()

	if _, err := s.src.Commit(); err != nil {
		var kafkaErr kafka.Error
		if !errors.As(err, &kafkaErr) || kafkaErr.Code() != kafka.ErrNoOffset {
			s.c.log.Warn("failed to commit offsets", zap.Error(err))
		}
	} else {
		s.c.log.Debug("final commit successful")
	}

	s.c.log.Info("closing kafka consumer")
	if err := s.src.Close(); err != nil {
		s.c.log.Error("failed to close kafka consumer", zap.Error(err))
	}
}

func logPartitionEvent(log *zap.Logger, event string, partitions []kafka.TopicPartition) {
	if len(partitions) == 0 {
		log.Warn(event + ": no partitions")
		return
	}

	ids := make([]int32, len(partitions))
	for i, p := range partitions {
		ids[i] = p.Partition
	}
	log.Info(event, zap.Int("partition_count", len(partitions)), zap.Int32s("partitions", ids))
}
