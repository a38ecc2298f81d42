package logger

import (
	"fmt"

	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. Outside development mode every entry carries
// the service identity so ingest and processor logs can be told apart once shipped.
func newLogger(conf Config, app appconfig.AppConfig) (*zap.Logger, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("logger configuration validation failed: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if conf.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(conf.Level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(conf.OutputPaths) > 0 {
		cfg.OutputPaths = conf.OutputPaths
	}
	cfg.Sampling = nil
	if conf.Sampling {
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(conf.StacktraceLevel)}
	if !conf.Development {
		opts = append(opts, zap.Fields(
			zap.String("service", app.ServiceName),
			zap.String("version", app.ServiceVersion),
			zap.String("env", app.Environment),
		))
	}

	logger, err := cfg.Build(opts...)
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	defaultLogger = logger

	logger.Debug("logger initialized",
		zap.Stringer("level", conf.Level),
		zap.Bool("development", conf.Development),
	)
	return logger, nil
}
