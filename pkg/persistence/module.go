// Package persistence is the MongoDB layer: client, index migrations and the
// collection wrapper the stores use.
package persistence

import (
	"github.com/Sokol111/match-events/pkg/persistence/mongo"
	"github.com/Sokol111/match-events/pkg/persistence/mongo/migrations"
	"go.uber.org/fx"
)

// NewPersistenceModule provides the Mongo client and checks or migrates the schema on
// start. A migrations.Source must be provided elsewhere.
func NewPersistenceModule() fx.Option {
	return fx.Options(
		mongo.NewMongoModule(),
		migrations.NewMigrationsModule(),
	)
}
