package migrations

import (
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the mongo.migrations section.
type Config struct {
	// AutoMigrate applies pending migrations on start. When off, start only refuses a
	// dirty schema.
	AutoMigrate    bool          `mapstructure:"auto-migrate"`
	CollectionName string        `mapstructure:"collection-name"`
	LockingTimeout time.Duration `mapstructure:"locking-timeout"`
}

func newConfig(v *viper.Viper, log *zap.Logger) (Config, error) {
	cfg := Config{AutoMigrate: true}
	if err := coreconfig.Sub(v, "mongo.migrations").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load mongo migrations config: %w", err)
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = "schema_migrations"
	}
	if cfg.LockingTimeout == 0 {
		cfg.LockingTimeout = 15 * time.Second
	}
	if cfg.LockingTimeout < time.Second {
		return cfg, fmt.Errorf("mongo.migrations.locking-timeout must be at least 1s, got %v", cfg.LockingTimeout)
	}

	log.Debug("loaded mongo migrations config",
		zap.Bool("auto_migrate", cfg.AutoMigrate),
		zap.String("collection", cfg.CollectionName),
	)
	return cfg, nil
}
