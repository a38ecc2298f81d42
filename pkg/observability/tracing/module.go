package tracing

import (
	"context"

	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/Sokol111/match-events/pkg/core/health"
	otelconfig "github.com/Sokol111/match-events/pkg/observability/config"
	otelinternal "github.com/Sokol111/match-events/pkg/observability/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
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

// NewTracingModule provides trace.TracerProvider. The W3C propagator is installed even
// when tracing is off so trace context still crosses Kafka headers.
func NewTracingModule() fx.Option {
	return fx.Options(
		fx.Provide(provideTracerProvider),
		fx.Invoke(func(trace.TracerProvider) {
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))
		}),
	)
}

func provideTracerProvider(p params) (trace.TracerProvider, error) {
	if !p.Cfg.Tracing.Enabled {
		p.Log.Debug("tracing disabled")
		return noop.NewTracerProvider(), nil
	}

	ctx := context.Background()
	res, err := otelinternal.NewResource(ctx, p.AppCfg, p.Role)
	if err != nil {
		return nil, err
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.Cfg.Tracing.SampleRatio))),
		sdktrace.WithResource(res),
	}
	if p.Cfg.OtelCollectorEndpoint != "" {
		exp, err := otlptracegrpc.New(ctx, exporterOptions(p.Cfg)...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	markReady := p.Readiness.AddComponent(otelconfig.TracingComponentName)
	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			otel.SetTracerProvider(tp)
			p.Log.Info("tracing started",
				zap.String("role", string(p.Role)),
				zap.String("endpoint", p.Cfg.OtelCollectorEndpoint),
				zap.Float64("sample_ratio", p.Cfg.Tracing.SampleRatio),
			)
			markReady()
			return nil
		},
		OnStop: otelinternal.ShutdownHook("tracer", p.Log, tp.Shutdown),
	})
	return tp, nil
}

func exporterOptions(cfg otelconfig.Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OtelCollectorEndpoint)}
	if !cfg.TLS {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}
