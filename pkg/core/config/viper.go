package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Source names where configuration comes from. The CLI supplies it.
type Source struct {
	// File overrides CONFIG_FILE.
	File string
	// Version is the build version, used when APP_SERVICE_VERSION is unset.
	Version string
}

// FilePath is the resolved config file. Empty means environment only.
type FilePath string

// NewViperModule provides *viper.Viper over the file resolved from Source, with
// environment overrides for every key.
func NewViperModule() fx.Option {
	return fx.Module("viper",
		fx.Provide(resolveConfigPath, newViper),
		fx.Invoke(logViperConfig),
	)
}

// Sections are the top-level keys some module reads.
var Sections = []string{"logger", "observability", "server", "kafka", "workflow", "storage", "mongo"}

func logViperConfig(logger *zap.Logger, v *viper.Viper) {
	logger.Info("configuration loaded",
		zap.String("config_file", v.ConfigFileUsed()),
		zap.Strings("sections", knownSections(v)),
	)
	if unknown := unknownSections(v); len(unknown) > 0 {
		logger.Warn("config file has sections no module reads, check for typos", zap.Strings("sections", unknown))
	}
}

func knownSections(v *viper.Viper) []string {
	var found []string
	for _, s := range Sections {
		if v.IsSet(s) {
			found = append(found, s)
		}
	}
	return found
}

func unknownSections(v *viper.Viper) []string {
	var unknown []string
	for key := range v.AllSettings() {
		if !slices.Contains(Sections, key) {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func resolveConfigPath(src Source) FilePath {
	if src.File != "" {
		return FilePath(src.File)
	}
	return FilePath(os.Getenv(envConfigFile))
}

func newViper(configFile FilePath) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(string(configFile))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", configFile, err)
	}

	return v, nil
}

// Sub returns the sub-tree for key, or an empty instance when the key is absent.
// Callers can always Unmarshal the result and fall back to their defaults.
func Sub(v *viper.Viper, key string) *viper.Viper {
	if sub := v.Sub(key); sub != nil {
		return sub
	}
	return viper.New()
}
