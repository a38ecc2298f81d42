package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /matches/event and GET /matches/{matchId}/{eventType}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(serveModules(flags))
			app.Run()
			return app.Err()
		},
	}
}

func newProcessCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Consume the event topic in batches and run each batch through enrich and store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(processModules(flags))
			app.Run()
			return app.Err()
		},
	}
}
