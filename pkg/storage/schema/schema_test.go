package schema

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/Sokol111/match-events/pkg/persistence/mongo/migrations"
	"github.com/Sokol111/match-events/pkg/testutil/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func TestSource_PairsUpAndDown(t *testing.T) {
	src := Source()

	ups, err := fs.Glob(src.FS, src.Dir+"/*.up.json")
	require.NoError(t, err)
	downs, err := fs.Glob(src.FS, src.Dir+"/*.down.json")
	require.NoError(t, err)

	assert.Len(t, ups, 2)
	assert.Len(t, downs, len(ups))
}

func TestMigrations_CreateRecordIndex(t *testing.T) {
	ctx := context.Background()
	mc := container.Mongo(t)

	// Arrange
	uri, err := mc.DatabaseURI(container.TestDatabase)
	require.NoError(t, err)
	m, err := migrations.NewMigrator(uri,
		migrations.Config{CollectionName: "schema_migrations", LockingTimeout: 15 * time.Second},
		Source(), zap.NewNop())
	require.NoError(t, err)

	// Act
	require.NoError(t, m.Up())
	require.NoError(t, m.Up())

	// Assert
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	cursor, err := mc.Database(container.TestDatabase).Collection("match_events").Indexes().List(ctx)
	require.NoError(t, err)
	var indexes []bson.M
	require.NoError(t, cursor.All(ctx, &indexes))
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		names = append(names, idx["name"].(string))
	}
	assert.Contains(t, names, "matchId_eventType_occurredAt")
}
