// Package observability wires OpenTelemetry tracing and metrics for the pipeline
// processes. Each process tags its telemetry with a Role.
package observability

import (
	"github.com/Sokol111/match-events/pkg/observability/config"
	"github.com/Sokol111/match-events/pkg/observability/metrics"
	"github.com/Sokol111/match-events/pkg/observability/tracing"
	"go.uber.org/fx"
)

type Option func(*config.Overrides)

// WithConfig skips the observability section of the config file.
func WithConfig(cfg config.Config) Option {
	return func(o *config.Overrides) { o.Static = &cfg }
}

// Disabled turns tracing and metrics off whatever the config says. Short-lived CLI
// commands use it.
func Disabled() Option {
	return func(o *config.Overrides) { o.Disabled = true }
}

// NewObservabilityModule provides trace.TracerProvider and metric.MeterProvider for role.
func NewObservabilityModule(role config.Role, opts ...Option) fx.Option {
	o := config.Overrides{Role: role}
	for _, opt := range opts {
		opt(&o)
	}
	return fx.Options(
		config.NewObservabilityConfigModule(o),
		tracing.NewTracingModule(),
		metrics.NewMetricsModule(),
	)
}
