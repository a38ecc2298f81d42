package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/match-events/pkg/persistence/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrDirty means a previous migration failed halfway and needs `migrate force`.
var ErrDirty = errors.New("schema is dirty")

// NewMigrationsModule provides a Migrator for the configured database and checks the
// schema on start. A Source must be provided elsewhere.
func NewMigrationsModule() fx.Option {
	return fx.Options(
		fx.Provide(newConfig, provideMigrator),
		fx.Invoke(func(lc fx.Lifecycle, m Migrator, conf Config, log *zap.Logger) {
			lc.Append(fx.StartHook(func(context.Context) error {
				return prepareSchema(m, conf, log)
			}))
		}),
	)
}

func provideMigrator(log *zap.Logger, conf Config, mongoConf mongo.Config, source Source) (Migrator, error) {
	return NewMigrator(mongoConf.BuildURI(), conf, source, log.With(zap.String("component", "migrations")))
}

func prepareSchema(m Migrator, conf Config, log *zap.Logger) error {
	if conf.AutoMigrate {
		if err := m.Up(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, version)
	}
	log.Info("auto-migrate off, using existing schema", zap.Uint("version", version))
	return nil
}
