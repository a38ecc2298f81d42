package logger

import (
	"fmt"
	"strings"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config is the logger section. Levels are zap level names ("debug", "warn").
type Config struct {
	Level zapcore.Level `mapstructure:"level"`
	// Development switches to colored console output.
	Development bool `mapstructure:"development"`
	// OutputPaths defaults to stderr.
	OutputPaths     []string      `mapstructure:"output-paths"`
	StacktraceLevel zapcore.Level `mapstructure:"stacktrace-level"`
	// Sampling keeps the first 100 identical entries per second and every 100th after
	// that. Useful when a broker outage makes every ingest request log the same error.
	Sampling bool `mapstructure:"sampling"`
}

func (c Config) Validate() error {
	for i, path := range c.OutputPaths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("output-paths[%d] cannot be empty or whitespace", i)
		}
	}
	return nil
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{Level: zapcore.InfoLevel, StacktraceLevel: zapcore.ErrorLevel}
	err := coreconfig.Sub(v, "logger").Unmarshal(&cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc()))
	if err != nil {
		return Config{}, fmt.Errorf("failed to load logger config: %w", err)
	}
	return cfg, nil
}
