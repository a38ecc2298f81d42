package config

import (
	"fmt"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewKafkaConfigModule provides Config from the kafka section.
func NewKafkaConfigModule() fx.Option {
	return fx.Provide(newConfig)
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	cfg, err := Load(v)
	if err != nil {
		return cfg, err
	}
	logger.Info("loaded kafka config",
		zap.String("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic.Name),
		zap.Int("partitions", cfg.Topic.Partitions),
		zap.String("group_id", cfg.Consumer.GroupID),
		zap.Int("max_batch_size", cfg.Consumer.MaxBatchSize),
		zap.Duration("max_batch_window", cfg.Consumer.MaxBatchWindow),
	)
	return cfg, nil
}

// Load reads, defaults and validates the "kafka" section.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := coreconfig.Sub(v, "kafka").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load kafka config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid kafka config: %w", err)
	}
	return cfg, nil
}
