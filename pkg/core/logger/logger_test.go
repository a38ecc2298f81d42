package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults when section missing", func(t *testing.T) {
		cfg, err := newConfig(viper.New())

		require.NoError(t, err)
		assert.Equal(t, zapcore.InfoLevel, cfg.Level)
		assert.Equal(t, zapcore.ErrorLevel, cfg.StacktraceLevel)
	})

	t.Run("parses levels", func(t *testing.T) {
		// Arrange
		v := viper.New()
		v.Set("logger.level", "debug")
		v.Set("logger.development", true)
		v.Set("logger.stacktrace-level", "warn")
		v.Set("logger.sampling", true)

		// Act
		cfg, err := newConfig(v)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, zapcore.DebugLevel, cfg.Level)
		assert.True(t, cfg.Development)
		assert.Equal(t, zapcore.WarnLevel, cfg.StacktraceLevel)
		assert.True(t, cfg.Sampling)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		v := viper.New()
		v.Set("logger.level", "loud")

		_, err := newConfig(v)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unrecognized level")
	})
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{OutputPaths: []string{"stderr"}}.Validate())
	assert.Error(t, Config{OutputPaths: []string{"stderr", "  "}}.Validate())
}

func TestNewLogger_WritesToOutputPath(t *testing.T) {
	// Arrange
	out := filepath.Join(t.TempDir(), "app.log")
	conf := defaultConfig()
	conf.Development = false
	conf.OutputPaths = []string{out}
	app := appconfig.AppConfig{ServiceName: "match-ingest", ServiceVersion: "1.2.0", Environment: "staging"}

	// Act
	log, err := newLogger(conf, app)
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	// Assert
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"match-ingest"`)
	assert.Contains(t, string(data), `"env":"staging"`)
}

func TestContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		l := zap.NewExample()
		ctx := With(context.Background(), l)

		assert.Same(t, l, Get(ctx))
	})

	t.Run("adds fields to the attached logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		ctx := With(context.Background(), zap.New(core))

		ctx = WithFields(ctx, zap.String("match_id", "42"))
		Get(ctx).Info("published")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "42", logs.All()[0].ContextMap()["match_id"])
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.NotNil(t, Get(context.Background()))
		//nolint:staticcheck // nil context is part of the contract
		assert.NotNil(t, Get(nil))
	})
}

func TestLogThrottler_Warn(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	throttler := NewLogThrottler(zap.New(core), time.Hour)

	// Act
	throttler.Warn("broker", "broker down")
	throttler.Warn("broker", "broker down")
	throttler.Warn("topic", "topic missing")

	// Assert
	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestLogThrottler_Recovered(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.DebugLevel)
	throttler := NewLogThrottler(zap.New(core), time.Hour)
	throttler.Warn("broker", "broker down")
	throttler.Warn("broker", "broker down")
	throttler.Warn("broker", "broker down")

	// Act
	throttler.Recovered("broker", "broker back")
	throttler.Recovered("broker", "broker back")
	throttler.Warn("broker", "broker down")

	// Assert
	entries := logs.All()
	require.Len(t, entries, 5)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)
	assert.Equal(t, int64(2), entries[3].ContextMap()["suppressed"])
	assert.Equal(t, zapcore.WarnLevel, entries[4].Level)
}

// defaultConfig mirrors the defaults applied by newConfig.
func defaultConfig() Config {
	return Config{Level: zapcore.InfoLevel, StacktraceLevel: zapcore.ErrorLevel}
}
