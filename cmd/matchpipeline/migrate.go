package main

import (
	"fmt"
	"strconv"

	"github.com/Sokol111/match-events/pkg/persistence/mongo"
	"github.com/Sokol111/match-events/pkg/persistence/mongo/migrations"
	"github.com/Sokol111/match-events/pkg/storage/schema"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Mongo index migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(flags, func(m migrations.Migrator) error {
					return m.Up()
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(flags, func(m migrations.Migrator) error {
					return m.Down()
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(flags, func(m migrations.Migrator) error {
					ver, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", ver, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Record a version as applied and clear the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ver, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withMigrator(flags, func(m migrations.Migrator) error {
					return m.Force(ver)
				})
			},
		},
	)

	return cmd
}

// withMigrator builds the migrator without starting the application, so no Mongo client
// connects and auto-migrate does not run.
func withMigrator(flags *rootFlags, fn func(migrations.Migrator) error) error {
	var m migrations.Migrator
	app := fx.New(
		coreModule(flags),
		fx.Provide(schema.Source),
		mongo.NewMongoModule(),
		migrations.NewMigrationsModule(),
		fx.Populate(&m),
	)
	if err := app.Err(); err != nil {
		return err
	}
	return fn(m)
}
