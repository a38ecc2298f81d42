package config

import (
	"cmp"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	envAppEnv            = "APP_ENV"
	envAppServiceName    = "APP_SERVICE_NAME"
	envAppServiceVersion = "APP_SERVICE_VERSION"
	envConfigFile        = "CONFIG_FILE"
)

// One-shot CLI commands usually run without service identity.
const (
	defaultEnvironment    = "local"
	defaultServiceName    = "match-events"
	defaultServiceVersion = "dev"
)

// AppConfig identifies the running process in logs and telemetry.
type AppConfig struct {
	ConfigFile     string
	ServiceName    string
	ServiceVersion string
	// Environment also picks the .env.<environment> file.
	Environment string
}

// NewAppConfigModule provides AppConfig from APP_ENV, APP_SERVICE_NAME and
// APP_SERVICE_VERSION.
func NewAppConfigModule() fx.Option {
	return fx.Module("appconfig",
		fx.Provide(newAppConfig),
		fx.Invoke(func(logger *zap.Logger, conf AppConfig) {
			logger.Info("starting",
				zap.String("service", conf.ServiceName),
				zap.String("version", conf.ServiceVersion),
				zap.String("environment", conf.Environment),
				zap.String("config_file", conf.ConfigFile),
			)
		}),
	)
}

func newAppConfig(src Source, file FilePath) AppConfig {
	return AppConfig{
		ConfigFile:     string(file),
		ServiceName:    envOrDefault(envAppServiceName, defaultServiceName),
		ServiceVersion: envOrDefault(envAppServiceVersion, cmp.Or(src.Version, defaultServiceVersion)),
		Environment:    envOrDefault(envAppEnv, defaultEnvironment),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
