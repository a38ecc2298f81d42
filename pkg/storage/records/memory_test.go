package records

import (
	"context"
	"testing"
	"time"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, matchID string, t match.EventType, occurredAt time.Time) match.EnrichedRecord {
	return match.EnrichedRecord{EventID: id, MatchID: matchID, EventType: t, OccurredAt: occurredAt, Season: "2024-2025"}
}

func TestMemoryRepository_FindByMatchAndType(t *testing.T) {
	// Arrange
	repo := NewMemoryRepository()
	base := time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(context.Background(), []match.EnrichedRecord{
		record("c", "1", match.EventTypeGoal, base.Add(2*time.Minute)),
		record("a", "1", match.EventTypeGoal, base),
		record("b", "1", match.EventTypePass, base),
		record("d", "2", match.EventTypeGoal, base),
	}))

	// Act
	got, err := repo.FindByMatchAndType(context.Background(), "1", match.EventTypeGoal)

	// Assert
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].EventID)
	assert.Equal(t, "c", got[1].EventID)
}

func TestMemoryRepository_UpsertIsIdempotent(t *testing.T) {
	// Arrange
	repo := NewMemoryRepository()
	rec := record("a", "1", match.EventTypeGoal, time.Now())

	// Act
	require.NoError(t, repo.Upsert(context.Background(), []match.EnrichedRecord{rec}))
	rec.Season = "2025-2026"
	require.NoError(t, repo.Upsert(context.Background(), []match.EnrichedRecord{rec}))

	// Assert
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, 2, repo.Writes())
	got, _ := repo.FindByMatchAndType(context.Background(), "1", match.EventTypeGoal)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-2026", got[0].Season)
}

func TestMemoryRepository_EmptyResultIsNotNil(t *testing.T) {
	got, err := NewMemoryRepository().FindByMatchAndType(context.Background(), "1", match.EventTypeFoul)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
