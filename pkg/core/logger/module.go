package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewZapLoggingModule provides *zap.Logger from the logger section. fx's own events
// are logged at warn and above only.
func NewZapLoggingModule() fx.Option {
	return fx.Options(
		fx.Provide(newConfig, provideLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	)
}

func provideLogger(lc fx.Lifecycle, conf Config, app appconfig.AppConfig) (*zap.Logger, error) {
	logger, err := newLogger(conf, app)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := logger.Sync(); err != nil && !isStdSyncError(err) {
				return err
			}
			return nil
		},
	})

	return logger, nil
}

// isStdSyncError reports the error returned when syncing stderr/stdout on a terminal.
func isStdSyncError(err error) bool {
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	return errors.Is(pathErr.Err, syscall.EINVAL) || errors.Is(pathErr.Err, syscall.ENOTTY)
}
