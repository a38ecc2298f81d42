package main

import (
	"context"

	"github.com/Sokol111/match-events/pkg/messaging/kafka/admin"
	kafkaconfig "github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newTopicCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Provision or delete Kafka topics",
	}
	cmd.AddCommand(newTopicCreateCmd(flags), newTopicDeleteCmd(flags))
	return cmd
}

func newTopicCreateCmd(flags *rootFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the configured event topic, or every topic of --file",
		Long: `Create topics. Creation is idempotent: an existing topic with the same partition
count and replication factor is accepted, a different one fails the command.

Example:
  matchpipeline topic create
  matchpipeline topic create --file topics.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := topicSpecs(file)
			if err != nil {
				return err
			}
			return withAdmin(cmd.Context(), flags, func(ctx context.Context, m *admin.Manager, conf kafkaconfig.Config) error {
				if specs == nil {
					spec, err := admin.SpecFromConfig(conf.Topic)
					if err != nil {
						return err
					}
					specs = []admin.TopicSpec{spec}
				}
				return m.ProvisionAll(ctx, specs)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file listing the topics to create")

	return cmd
}

func newTopicDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a topic (the configured event topic by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), flags, func(ctx context.Context, m *admin.Manager, conf kafkaconfig.Config) error {
				name := conf.Topic.Name
				if len(args) == 1 {
					name = args[0]
				}
				return m.Deprovision(ctx, name)
			})
		},
	}
}

// topicSpecs reads the spec file up front so a bad file fails before any broker call.
// It returns nil when no file is given.
func topicSpecs(file string) ([]admin.TopicSpec, error) {
	if file == "" {
		return nil, nil
	}
	return admin.LoadTopicSpecs(file)
}

func withAdmin(ctx context.Context, flags *rootFlags, fn func(context.Context, *admin.Manager, kafkaconfig.Config) error) error {
	var (
		manager *admin.Manager
		conf    kafkaconfig.Config
	)
	opts := fx.Options(
		coreModule(flags),
		kafkaconfig.NewKafkaConfigModule(),
		admin.NewAdminModule(),
		fx.Populate(&manager, &conf),
	)
	return runOnce(ctx, opts, func(ctx context.Context) error {
		return fn(ctx, manager, conf)
	})
}
