// Package consumer reads the match event topic, groups events per partition
// into bounded batches and hands each batch to a BatchHandler.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sokol111/match-events/pkg/core/logger"
	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/tracing"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// BatchHandler runs a closed batch to a terminal state.
// A nil error acknowledges the batch, including batches whose execution failed
// and was recorded. A non-nil error leaves the batch for redelivery.
type BatchHandler interface {
	HandleBatch(ctx context.Context, batch match.Batch) error
}

// BatchHandlerFunc adapts a function to BatchHandler.
type BatchHandlerFunc func(ctx context.Context, batch match.Batch) error

func (f BatchHandlerFunc) HandleBatch(ctx context.Context, batch match.Batch) error {
	return f(ctx, batch)
}

type options struct {
	log            *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	onReady        func()
	onHealth       func(error)
}

// Option configures a BatchConsumer.
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

// WithReadyFunc is called once, after the first successful subscription.
func WithReadyFunc(fn func()) Option {
	return func(o *options) { o.onReady = fn }
}

// WithHealthFunc receives the broker error when reads start failing on connection
// errors and nil once a read succeeds again.
func WithHealthFunc(fn func(error)) Option {
	return func(o *options) { o.onHealth = fn }
}

// BatchConsumer is the long-running processing loop.
type BatchConsumer struct {
	topic     string
	cfg       config.ConsumerConfig
	newSource SourceFactory
	handler   BatchHandler
	codec     *match.Codec
	sem       *semaphore.Weighted
	tracer    tracing.MessageTracer
	batchSize metric.Int64Histogram
	throttler *logger.LogThrottler
	log       *zap.Logger
	onReady   func()
	readyOnce sync.Once
	onHealth  func(error)
	degraded  atomic.Bool
}

func NewBatchConsumer(conf config.Config, newSource SourceFactory, handler BatchHandler, opts ...Option) (*BatchConsumer, error) {
	o := options{
		log:            zap.NewNop(),
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		onReady:        func() {},
		onHealth:       func(error) {},
	}
	for _, opt := range opts {
		opt(&o)
	}

	codec, err := match.NewCodec()
	if err != nil {
		return nil, err
	}

	batchSize, err := o.meterProvider.Meter("match-events/consumer").Int64Histogram("consumer.batch.size",
		metric.WithDescription("Events per dispatched batch"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50, 100, 200, 500, 1000))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch size histogram: %w", err)
	}

	log := o.log.With(zap.String("component", "batch-consumer"), zap.String("topic", conf.Topic.Name))

	return &BatchConsumer{
		topic:     conf.Topic.Name,
		cfg:       conf.Consumer,
		newSource: newSource,
		handler:   handler,
		codec:     codec,
		sem:       semaphore.NewWeighted(int64(conf.Consumer.MaxInFlight)),
		tracer:    tracing.NewMessageTracer(o.tracerProvider),
		batchSize: batchSize,
		throttler: logger.NewLogThrottler(log, 0),
		log:       log,
		onReady:   o.onReady,
		onHealth:  o.onHealth,
	}, nil
}

// Run consumes until ctx is cancelled. A lost connection is re-established with
// exponential backoff; Run only fails once reconnecting gives up.
func (c *BatchConsumer) Run(ctx context.Context) error {
	b := c.reconnectBackOff()

	for {
		received, err := c.runSession(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConnectionLost) {
			return err
		}

		if received {
			b.Reset()
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("giving up reconnecting to kafka: %w", err)
		}

		c.log.Warn("kafka connection lost, reconnecting", zap.Duration("backoff", wait), zap.Error(err))
		if !sleep(ctx, wait) {
			return nil
		}
	}
}

func (c *BatchConsumer) reconnectBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReconnectInitialBackoff
	b.MaxInterval = c.cfg.ReconnectMaxBackoff
	b.MaxElapsedTime = c.cfg.ReconnectMaxElapsed
	b.Reset()
	return b
}

// runSession reports whether at least one message was received.
func (c *BatchConsumer) runSession(ctx context.Context) (bool, error) {
	src, err := c.newSource()
	if err != nil {
		return false, connectionLost(err)
	}

	s := newSession(ctx, c, src)
	defer s.close()

	return s.run()
}

func (c *BatchConsumer) markReady() {
	c.readyOnce.Do(c.onReady)
}

// brokerDown and brokerUp report transitions only, across sessions.
func (c *BatchConsumer) brokerDown(err error) {
	if c.degraded.CompareAndSwap(false, true) {
		c.onHealth(err)
	}
}

func (c *BatchConsumer) brokerUp() {
	if c.degraded.CompareAndSwap(true, false) {
		c.onHealth(nil)
	}
}

// waitCapacity blocks while every in-flight slot is taken.
func (c *BatchConsumer) waitCapacity(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.sem.Release(1)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
