// Package worker binds long-running loops such as the batch consumer to the fx
// lifecycle.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Runner loops until ctx is cancelled. A returned error is fatal for the application.
type Runner interface {
	Run(ctx context.Context) error
}

type worker struct {
	name       string
	run        func(ctx context.Context) error
	shutdowner fx.Shutdowner
	log        *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func newWorker(name string, run func(ctx context.Context) error, shutdowner fx.Shutdowner, log *zap.Logger) *worker {
	return &worker{
		name:       name,
		run:        run,
		shutdowner: shutdowner,
		log:        log.With(zap.String("worker", name)),
	}
}

func (w *worker) start(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx)
	w.log.Info("worker started")
	return nil
}

func (w *worker) loop(ctx context.Context) {
	defer close(w.done)

	err := w.run(ctx)
	if err == nil || (ctx.Err() != nil && errors.Is(err, context.Canceled)) {
		w.log.Info("worker stopped")
		return
	}
	w.log.Error("worker failed, shutting down", zap.Error(err))
	if serr := w.shutdowner.Shutdown(fx.ExitCode(1)); serr != nil {
		w.log.Error("failed to initiate shutdown", zap.Error(serr))
	}
}

// stop cancels the loop and waits for in-flight batches to drain until ctx expires.
func (w *worker) stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s did not drain before the stop timeout: %w", w.name, ctx.Err())
	}
}

// Register runs T.Run for the lifetime of the application.
func Register[T Runner](name string) fx.Option {
	return fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger, shutdowner fx.Shutdowner, dep T) {
		w := newWorker(name, dep.Run, shutdowner, log)
		lc.Append(fx.Hook{OnStart: w.start, OnStop: w.stop})
	})
}
