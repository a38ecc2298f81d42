// Command matchpipeline runs the match event pipeline.
//
//	matchpipeline serve                          ingest and query HTTP API
//	matchpipeline process                        batch consumer and workflow
//	matchpipeline topic create [--file f]        provision the event topic(s)
//	matchpipeline topic delete [name]            delete a topic
//	matchpipeline migrate up|down|version|force  manage the Mongo index migrations
//	matchpipeline executions list                show failed executions
//	matchpipeline executions resubmit <id>       re-run a failed batch
//
// Configuration is read from the file named by --config or CONFIG_FILE, with
// environment overrides (kafka.consumer.max-batch-size -> KAFKA_CONSUMER_MAX_BATCH_SIZE).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// The one-shot commands stop waiting on brokers or Mongo on the first signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "matchpipeline",
		Short:         "Ingest, batch, enrich and store match events",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Config file (overrides CONFIG_FILE)")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newProcessCmd(flags),
		newTopicCmd(flags),
		newMigrateCmd(flags),
		newExecutionsCmd(flags),
	)

	return rootCmd
}
