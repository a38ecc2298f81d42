package mongo

import (
	"context"

	"github.com/Sokol111/match-events/pkg/core/health"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewMongoModule provides Mongo and its Config. The client pings on start and
// disconnects on stop.
func NewMongoModule() fx.Option {
	return fx.Provide(newConfig, provideMongo)
}

func provideMongo(lc fx.Lifecycle, log *zap.Logger, conf Config, tp trace.TracerProvider, readiness health.ComponentManager) (Mongo, error) {
	m, err := newMongo(log.With(zap.String("component", "mongo")), conf, tp)
	if err != nil {
		return nil, err
	}

	markReady := readiness.AddComponent("mongo")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.connect(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.disconnect(ctx)
		},
	})

	return m, nil
}
