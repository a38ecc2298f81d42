package config

import (
	"errors"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	errSampleRatio     = errors.New("observability.tracing.sample-ratio must be in [0, 1]")
	errMetricsEndpoint = errors.New("observability.otel-collector-endpoint is required when metrics are enabled")
)

// Overrides adjust the loaded Config before validation.
type Overrides struct {
	Static   *Config
	Role     Role
	Disabled bool
}

// NewObservabilityConfigModule provides Config and Role.
func NewObservabilityConfigModule(o Overrides) fx.Option {
	return fx.Options(
		fx.Supply(o.Role),
		fx.Provide(func(v *viper.Viper, log *zap.Logger) (Config, error) {
			return provideConfig(o, v, log)
		}),
	)
}

func provideConfig(o Overrides, v *viper.Viper, log *zap.Logger) (Config, error) {
	var cfg Config
	if o.Static != nil {
		cfg = *o.Static
	} else if err := coreconfig.Sub(v, "observability").Unmarshal(&cfg); err != nil {
		return cfg, errors.Join(errors.New("failed to load observability config"), err)
	}

	if cfg.Metrics.Interval == 0 {
		cfg.Metrics.Interval = DefaultMetricsInterval
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultSampleRatio
	}
	if o.Disabled {
		cfg.Tracing.Enabled = false
		cfg.Metrics.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	log.Info("loaded observability config",
		zap.String("role", string(o.Role)),
		zap.Bool("tracing", cfg.Tracing.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Bool("export", cfg.OtelCollectorEndpoint != ""),
	)
	return cfg, nil
}
