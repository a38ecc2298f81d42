package observability

import (
	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/Sokol111/match-events/pkg/http/middleware"
	otelinternal "github.com/Sokol111/match-events/pkg/observability/internal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// NewHTTPTelemetryModule adds the otelgin middleware as the outermost entry of the gin
// chain. Health routes are neither traced nor measured.
func NewHTTPTelemetryModule() fx.Option {
	return fx.Provide(
		fx.Annotate(
			func(appCfg appconfig.AppConfig, tp trace.TracerProvider, mp metric.MeterProvider) middleware.Middleware {
				return middleware.Middleware{
					Priority: 5,
					Handler: otelgin.Middleware(appCfg.ServiceName,
						otelgin.WithTracerProvider(tp),
						otelgin.WithMeterProvider(mp),
						otelgin.WithGinFilter(otelinternal.Instrumented),
					),
				}
			},
			fx.ResultTags(`group:"gin_mw"`),
		),
	)
}
