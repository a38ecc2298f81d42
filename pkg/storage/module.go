package storage

import (
	"context"

	pmongo "github.com/Sokol111/match-events/pkg/persistence/mongo"
	"github.com/Sokol111/match-events/pkg/storage/blob"
	"github.com/Sokol111/match-events/pkg/storage/executions"
	"github.com/Sokol111/match-events/pkg/storage/records"
	"github.com/Sokol111/match-events/pkg/storage/schema"
	"github.com/Sokol111/match-events/pkg/workflow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewStorageModule provides the blob store, the record and failed-execution
// repositories, and the Store used as the workflow's store step.
// It requires a pmongo.Mongo.
func NewStorageModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideBlobStore,
			provideRecordRepository,
			provideFailureStore,
			fx.Annotate(provideStore, fx.As(new(workflow.Storer))),
			schema.Source,
		),
	)
}

// NewReadModule provides only the record repository, for the query path.
func NewReadModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideRecordRepository,
			schema.Source,
		),
	)
}

func provideBlobStore(lc fx.Lifecycle, cfg Config, log *zap.Logger) (blob.Store, error) {
	if cfg.Blob.Provider == BlobProviderMemory {
		log.Warn("using in-memory blob store, raw payloads are not persisted")
		return blob.NewMemoryStore(), nil
	}

	s, err := blob.NewAzureStore(cfg.Blob.Azure, log.With(zap.String("component", "blob")))
	if err != nil {
		return nil, err
	}
	if cfg.Blob.CreateContainer {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return s.EnsureContainer(ctx)
			},
		})
	}
	return s, nil
}

func provideRecordRepository(cfg Config, m pmongo.Mongo) records.Repository {
	return records.NewMongoRepository(m.Collection(cfg.RecordsCollection))
}

func provideFailureStore(cfg Config, m pmongo.Mongo) workflow.FailureStore {
	return executions.NewMongoRepository(m.Collection(cfg.ExecutionsCollection))
}

func provideStore(cfg Config, blobs blob.Store, recs records.Repository, log *zap.Logger) *Store {
	return NewStore(blobs, recs, cfg.UploadConcurrency, log.With(zap.String("component", "storage")))
}
