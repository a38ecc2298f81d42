package storage

import (
	"fmt"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/Sokol111/match-events/pkg/storage/blob"
	"github.com/Sokol111/match-events/pkg/storage/executions"
	"github.com/Sokol111/match-events/pkg/storage/records"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BlobProvider selects the raw payload store.
type BlobProvider string

const (
	BlobProviderAzure  BlobProvider = "azure"
	BlobProviderMemory BlobProvider = "memory"
)

const (
	defaultContainer         = "match-events"
	defaultUploadConcurrency = 8
	maxUploadConcurrency     = 64
)

type Config struct {
	Blob                 BlobConfig `mapstructure:"blob"`
	RecordsCollection    string     `mapstructure:"records-collection"`
	ExecutionsCollection string     `mapstructure:"executions-collection"`
	UploadConcurrency    int        `mapstructure:"upload-concurrency"` // Parallel raw payload uploads per batch
}

type BlobConfig struct {
	Provider        BlobProvider     `mapstructure:"provider"`
	CreateContainer bool             `mapstructure:"create-container"`
	Azure           blob.AzureConfig `mapstructure:"azure"`
}

func newConfig(v *viper.Viper, log *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Sub(v, "storage").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load storage config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, fmt.Errorf("invalid storage config: %w", err)
	}

	log.Info("loaded storage config",
		zap.String("blob-provider", string(cfg.Blob.Provider)),
		zap.String("container", cfg.Blob.Azure.Container),
		zap.String("records-collection", cfg.RecordsCollection),
		zap.String("executions-collection", cfg.ExecutionsCollection),
	)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Blob.Provider == "" {
		cfg.Blob.Provider = BlobProviderAzure
	}
	if cfg.Blob.Azure.Container == "" {
		cfg.Blob.Azure.Container = defaultContainer
	}
	if cfg.RecordsCollection == "" {
		cfg.RecordsCollection = records.DefaultCollection
	}
	if cfg.ExecutionsCollection == "" {
		cfg.ExecutionsCollection = executions.DefaultCollection
	}
	if cfg.UploadConcurrency == 0 {
		cfg.UploadConcurrency = defaultUploadConcurrency
	}
}

func validateConfig(cfg Config) error {
	switch cfg.Blob.Provider {
	case BlobProviderMemory, BlobProviderAzure:
	default:
		return fmt.Errorf("blob provider must be 'azure' or 'memory', got: %s", cfg.Blob.Provider)
	}
	if cfg.UploadConcurrency < 1 || cfg.UploadConcurrency > maxUploadConcurrency {
		return fmt.Errorf("upload concurrency must be between 1 and %d, got: %d", maxUploadConcurrency, cfg.UploadConcurrency)
	}
	return nil
}
