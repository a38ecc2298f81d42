package metrics

import (
	"context"

	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/Sokol111/match-events/pkg/core/health"
	otelconfig "github.com/Sokol111/match-events/pkg/observability/config"
	otelinternal "github.com/Sokol111/match-events/pkg/observability/internal"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type params struct {
	fx.In
	Lc        fx.Lifecycle
	Log       *zap.Logger
	Cfg       otelconfig.Config
	AppCfg    appconfig.AppConfig
	Role      otelconfig.Role
	Readiness health.ComponentManager
}

// NewMetricsModule provides metric.MeterProvider, a noop one when metrics are off.
// Go runtime metrics are exported alongside the pipeline's own instruments.
func NewMetricsModule() fx.Option {
	return fx.Options(
		fx.Provide(provideMeterProvider),
		fx.Invoke(func(metric.MeterProvider) {}),
	)
}

func provideMeterProvider(p params) (metric.MeterProvider, error) {
	if !p.Cfg.Metrics.Enabled {
		p.Log.Debug("metrics disabled")
		return noop.NewMeterProvider(), nil
	}

	ctx := context.Background()
	res, err := otelinternal.NewResource(ctx, p.AppCfg, p.Role)
	if err != nil {
		return nil, err
	}
	expOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.Cfg.OtelCollectorEndpoint)}
	if !p.Cfg.TLS {
		expOpts = append(expOpts, otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, expOpts...)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(p.Cfg.Metrics.Interval))),
		sdkmetric.WithResource(res),
	)

	markReady := p.Readiness.AddComponent(otelconfig.MetricsComponentName)
	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			otel.SetMeterProvider(mp)
			if err := otelruntime.Start(
				otelruntime.WithMeterProvider(mp),
				otelruntime.WithMinimumReadMemStatsInterval(otelconfig.DefaultRuntimeStatsInterval),
			); err != nil {
				p.Log.Warn("runtime metrics not started", zap.Error(err))
			}
			p.Log.Info("metrics started",
				zap.String("role", string(p.Role)),
				zap.String("endpoint", p.Cfg.OtelCollectorEndpoint),
				zap.Duration("interval", p.Cfg.Metrics.Interval),
			)
			markReady()
			return nil
		},
		OnStop: otelinternal.ShutdownHook("meter", p.Log, mp.Shutdown),
	})
	return mp, nil
}
