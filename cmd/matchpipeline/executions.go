package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Sokol111/match-events/pkg/observability"
	"github.com/Sokol111/match-events/pkg/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newExecutionsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "executions",
		Short: "Inspect and resubmit failed workflow executions",
	}
	cmd.AddCommand(newExecutionsListCmd(flags), newExecutionsResubmitCmd(flags))
	return cmd
}

func newExecutionsListCmd(flags *rootFlags) *cobra.Command {
	var (
		filter workflow.ListFilter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List failed executions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var store workflow.FailureStore
			opts := fx.Options(workflowModules(flags, "executions", observability.Disabled()), fx.Populate(&store))
			return runOnce(cmd.Context(), opts, func(ctx context.Context) error {
				failed, err := store.List(ctx, filter)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(failed)
				}
				return printExecutions(cmd.OutOrStdout(), failed)
			})
		},
	}
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "Maximum number of executions to show")
	cmd.Flags().BoolVarP(&filter.IncludeResubmitted, "all", "a", false, "Include executions that were already resubmitted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full records, batches included, as JSON")

	return cmd
}

func printExecutions(w io.Writer, failed []workflow.FailedExecution) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFAILED AT\tSTEP\tKIND\tATTEMPTS\tEVENTS\tPARTITION\tOFFSETS\tRESUBMITTED AS\tERROR")
	for _, f := range failed {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d-%d\t%s\t%s\n",
			f.ID,
			f.FailedAt.UTC().Format(time.RFC3339),
			f.Step,
			f.Kind,
			f.Attempts,
			f.Batch.Len(),
			f.Batch.Partition,
			f.Batch.FirstOffset, f.Batch.LastOffset,
			orDash(f.ResubmittedAs),
			f.Error,
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newExecutionsResubmitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <id>",
		Short: "Run the batch of a failed execution again",
		Long: `Run the stored batch of a failed execution as a new execution. The failed record is
marked resubmitted whatever the outcome; if the new execution fails too it is recorded
under its own id and the command exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resubmitter *workflow.Resubmitter
			opts := fx.Options(workflowModules(flags, "executions", observability.Disabled()), fx.Populate(&resubmitter))
			return runOnce(cmd.Context(), opts, func(ctx context.Context) error {
				result, err := resubmitter.Resubmit(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "execution %s: %s (%d records, %s)\n",
					result.ExecutionID, result.State, result.Records, result.Duration().Round(time.Millisecond))
				if result.Err != nil {
					return fmt.Errorf("resubmitted execution %s failed: %w", result.ExecutionID, result.Err)
				}
				return nil
			})
		},
	}
}
