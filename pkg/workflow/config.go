package workflow

import (
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultMaxProcessingTime = 300 * time.Second
	defaultStepTimeout       = 60 * time.Second
	defaultRetryLimit        = 3
	defaultInitialBackoff    = 200 * time.Millisecond
	defaultMaxBackoff        = 5 * time.Second

	maxRetryLimit = 20
)

// Config bounds a single execution.
type Config struct {
	MaxProcessingTime time.Duration `mapstructure:"max-processing-time"` // Deadline of a whole execution (maxProcessingTime)
	StepTimeout       time.Duration `mapstructure:"step-timeout"`        // Deadline of one step attempt, capped by MaxProcessingTime
	RetryLimit        int           `mapstructure:"retry-limit"`         // Attempts per step, including the first
	InitialBackoff    time.Duration `mapstructure:"initial-backoff"`     // Delay before the second attempt
	MaxBackoff        time.Duration `mapstructure:"max-backoff"`         // Ceiling for the retry delay
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Sub(v, "workflow").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load workflow config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid workflow config: %w", err)
	}

	logger.Info("loaded workflow config", zap.Any("config", cfg))
	return cfg, nil
}

// DefaultConfig returns the defaults applied to an empty section.
func DefaultConfig() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.MaxProcessingTime == 0 {
		cfg.MaxProcessingTime = defaultMaxProcessingTime
	}
	if cfg.StepTimeout == 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.StepTimeout > cfg.MaxProcessingTime {
		cfg.StepTimeout = cfg.MaxProcessingTime
	}
	if cfg.RetryLimit == 0 {
		cfg.RetryLimit = defaultRetryLimit
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
}

// Validate checks the bounds of an already defaulted config.
func (c Config) Validate() error {
	if c.MaxProcessingTime <= 0 {
		return fmt.Errorf("max processing time must be positive, got: %v", c.MaxProcessingTime)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step timeout must be positive, got: %v", c.StepTimeout)
	}
	if c.RetryLimit < 1 || c.RetryLimit > maxRetryLimit {
		return fmt.Errorf("retry limit must be between 1 and %d, got: %d", maxRetryLimit, c.RetryLimit)
	}
	if c.InitialBackoff > c.MaxBackoff {
		return fmt.Errorf("initial backoff (%v) cannot be greater than max backoff (%v)", c.InitialBackoff, c.MaxBackoff)
	}
	return nil
}
