package config

import "time"

const (
	DefaultMetricsInterval      = 10 * time.Second
	DefaultShutdownTimeout      = 5 * time.Second
	DefaultRuntimeStatsInterval = time.Second
	DefaultSampleRatio          = 1.0

	// Readiness component names.
	TracingComponentName = "tracing"
	MetricsComponentName = "metrics"
)

// Role is the pipeline process emitting telemetry ("serve", "process" or a CLI
// command). It becomes the pipeline.role resource attribute.
type Role string

// Config is the observability section.
type Config struct {
	// OtelCollectorEndpoint is the OTLP gRPC endpoint. Without it spans are sampled
	// locally and never exported.
	OtelCollectorEndpoint string        `mapstructure:"otel-collector-endpoint"`
	TLS                   bool          `mapstructure:"tls"`
	Tracing               TracingConfig `mapstructure:"tracing"`
	Metrics               MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SampleRatio is the fraction of root traces kept; child spans follow their parent,
	// so a batch span follows the ingest request that produced its first event.
	SampleRatio float64 `mapstructure:"sample-ratio"`
}

type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

func (c Config) Validate() error {
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errSampleRatio
	}
	if c.Metrics.Enabled && c.OtelCollectorEndpoint == "" {
		return errMetricsEndpoint
	}
	return nil
}
