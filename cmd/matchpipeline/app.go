package main

import (
	"context"
	"fmt"

	api "github.com/Sokol111/match-events/internal/api"
	"github.com/Sokol111/match-events/pkg/core"
	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/Sokol111/match-events/pkg/enrich"
	httpmodules "github.com/Sokol111/match-events/pkg/http"
	kafkaconfig "github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/consumer"
	"github.com/Sokol111/match-events/pkg/messaging/kafka/producer"
	"github.com/Sokol111/match-events/pkg/observability"
	otelconfig "github.com/Sokol111/match-events/pkg/observability/config"
	"github.com/Sokol111/match-events/pkg/persistence"
	"github.com/Sokol111/match-events/pkg/query"
	"github.com/Sokol111/match-events/pkg/storage"
	"github.com/Sokol111/match-events/pkg/workflow"
	"go.uber.org/fx"
)

func coreModule(flags *rootFlags) fx.Option {
	return core.NewCoreModule(coreconfig.Source{File: flags.configFile, Version: version})
}

// serveModules is the HTTP process: ingest publishes to Kafka, query reads Mongo.
func serveModules(flags *rootFlags) fx.Option {
	return fx.Options(
		coreModule(flags),
		observability.NewObservabilityModule("serve"),
		observability.NewHTTPTelemetryModule(),
		kafkaconfig.NewKafkaConfigModule(),
		producer.NewProducerModule(),
		persistence.NewPersistenceModule(),
		storage.NewReadModule(),
		query.NewQueryModule(),
		httpmodules.NewHTTPModule(),
		api.NewIngestModule(),
		api.NewQueryRoutesModule(),
	)
}

// workflowModules wires the orchestrator over Mongo and the blob store. CLI commands
// pass observability.Disabled().
func workflowModules(flags *rootFlags, role otelconfig.Role, otelOpts ...observability.Option) fx.Option {
	return fx.Options(
		coreModule(flags),
		observability.NewObservabilityModule(role, otelOpts...),
		persistence.NewPersistenceModule(),
		storage.NewStorageModule(),
		enrich.NewEnrichModule(),
		workflow.NewWorkflowModule(),
	)
}

// processModules is the batch process: consumer -> orchestrator, with health routes.
func processModules(flags *rootFlags) fx.Option {
	return fx.Options(
		workflowModules(flags, "process"),
		kafkaconfig.NewKafkaConfigModule(),
		fx.Provide(func(o *workflow.Orchestrator) consumer.BatchHandler { return o }),
		consumer.NewConsumerModule(),
		httpmodules.NewHTTPModule(),
	)
}

// runOnce starts an application, runs fn and stops the application again.
func runOnce(ctx context.Context, opts fx.Option, fn func(ctx context.Context) error) error {
	app := fx.New(opts)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	return runErr
}
