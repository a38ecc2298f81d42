// Package migrations applies versioned MongoDB commands with golang-migrate.
package migrations

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Source is a directory of migration files in an fs.FS. Files are named
// <version>_<title>.up.json / .down.json and hold a JSON array of database commands.
type Source struct {
	FS  fs.FS
	Dir string
}

// Migrator applies the migrations of a Source to one database.
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	// Force records version as applied and clears the dirty flag without running anything.
	Force(version int) error
}

type migrator struct {
	source      Source
	databaseURL string
	log         *zap.Logger
}

// NewMigrator builds a migrator for the database at uri. The database name must be
// part of the uri path.
func NewMigrator(uri string, conf Config, source Source, log *zap.Logger) (Migrator, error) {
	if source.FS == nil {
		return nil, fmt.Errorf("migrations filesystem is required")
	}
	databaseURL, err := migrateURL(uri, conf)
	if err != nil {
		return nil, err
	}
	return &migrator{source: source, databaseURL: databaseURL, log: log}, nil
}

// migrateURL adds the golang-migrate driver parameters to a mongo uri.
func migrateURL(uri string, conf Config) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongo uri: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("mongo uri must name a database")
	}

	q := u.Query()
	q.Set("x-migrations-collection", conf.CollectionName)
	q.Set("x-advisory-locking", "true")
	q.Set("x-advisory-lock-timeout", strconv.Itoa(int(conf.LockingTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *migrator) open() (*migrate.Migrate, error) {
	src, err := iofs.New(m.source.FS, m.source.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}
	mi, err := migrate.NewWithSourceInstance("iofs", src, m.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mi, nil
}

func (m *migrator) close(mi *migrate.Migrate) {
	sourceErr, dbErr := mi.Close()
	if sourceErr != nil {
		m.log.Warn("failed to close migration source", zap.Error(sourceErr))
	}
	if dbErr != nil {
		m.log.Warn("failed to close migration database", zap.Error(dbErr))
	}
}

func (m *migrator) Up() error {
	mi, err := m.open()
	if err != nil {
		return err
	}
	defer m.close(mi)

	err = mi.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations up: %w", err)
	}

	version, dirty, err := mi.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	m.log.Info("migrations completed successfully", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (m *migrator) Down() error {
	m.log.Warn("rolling back all migrations")

	mi, err := m.open()
	if err != nil {
		return err
	}
	defer m.close(mi)

	if err := mi.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations down: %w", err)
	}
	return nil
}

// Version returns the applied version; 0 when nothing was applied.
func (m *migrator) Version() (uint, bool, error) {
	mi, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer m.close(mi)

	version, dirty, err := mi.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

func (m *migrator) Force(version int) error {
	mi, err := m.open()
	if err != nil {
		return err
	}
	defer m.close(mi)

	if err := mi.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	m.log.Warn("migration version forced", zap.Int("version", version))
	return nil
}
