package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/storage/blob"
	"github.com/Sokol111/match-events/pkg/storage/records"
	"github.com/Sokol111/match-events/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingBlobs struct {
	*blob.MemoryStore
	puts atomic.Int32
	err  error
}

func (f *failingBlobs) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.puts.Add(1)
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.Put(ctx, key, data, contentType)
}

func testBatch() (match.Batch, []match.EnrichedRecord) {
	batch := match.Batch{Partition: 0, Events: []match.Event{
		{ID: "e1", MatchID: "7", EventType: match.EventTypeGoal, Payload: []byte(`{"match_id":"7"}`)},
		{ID: "e2", MatchID: "7", EventType: match.EventTypeFoul, Payload: []byte("not json")},
	}}
	recs := []match.EnrichedRecord{
		{EventID: "e1", MatchID: "7", EventType: match.EventTypeGoal, Payload: batch.Events[0].Payload, Season: "2024-2025"},
		{EventID: "e2", MatchID: "7", EventType: match.EventTypeFoul, Payload: batch.Events[1].Payload, Season: "2024-2025"},
	}
	return batch, recs
}

func TestStore_Store(t *testing.T) {
	// Arrange
	blobs := blob.NewMemoryStore()
	recs := records.NewMemoryRepository()
	s := NewStore(blobs, recs, 2, zap.NewNop())
	batch, enriched := testBatch()

	// Act
	err := s.Store(context.Background(), batch, enriched)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"events/e1.json", "events/e2.json", "match_events_e1.json"}, blobs.Keys())

	raw, err := blobs.Get(context.Background(), RawPayloadKey("e1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"match_id":"7"}`, string(raw))

	doc, err := blobs.Get(context.Background(), ArchiveKey("e1"))
	require.NoError(t, err)
	var archived []map[string]any
	require.NoError(t, json.Unmarshal(doc, &archived))
	require.Len(t, archived, 2)
	assert.Equal(t, "e1", archived[0]["event_id"])
	assert.Equal(t, map[string]any{"match_id": "7"}, archived[0]["payload"])
	assert.Equal(t, "2024-2025", archived[1]["season"])
	assert.IsType(t, "", archived[1]["payload"])

	goals, err := recs.FindByMatchAndType(context.Background(), "7", match.EventTypeGoal)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "e1", goals[0].EventID)
}

func TestStore_IsIdempotent(t *testing.T) {
	// Arrange
	blobs := blob.NewMemoryStore()
	recs := records.NewMemoryRepository()
	s := NewStore(blobs, recs, 4, zap.NewNop())
	batch, enriched := testBatch()

	// Act
	require.NoError(t, s.Store(context.Background(), batch, enriched))
	require.NoError(t, s.Store(context.Background(), batch, enriched))

	// Assert
	assert.Len(t, blobs.Keys(), 3)
	assert.Equal(t, 2, recs.Len())
	assert.Equal(t, 4, recs.Writes())
}

func TestStore_BlobFailureSkipsRecords(t *testing.T) {
	// Arrange
	blobs := &failingBlobs{MemoryStore: blob.NewMemoryStore(), err: errors.New("503 server busy")}
	recs := records.NewMemoryRepository()
	s := NewStore(blobs, recs, 1, zap.NewNop())
	batch, enriched := testBatch()

	// Act
	err := s.Store(context.Background(), batch, enriched)

	// Assert
	require.Error(t, err)
	assert.False(t, workflow.IsPermanent(err))
	assert.Equal(t, 0, recs.Len())
}

func TestStore_AccessDeniedIsPermanent(t *testing.T) {
	blobs := &failingBlobs{MemoryStore: blob.NewMemoryStore(), err: errors.Join(blob.ErrAccessDenied, errors.New("403"))}
	s := NewStore(blobs, records.NewMemoryRepository(), 1, zap.NewNop())
	batch, enriched := testBatch()

	err := s.Store(context.Background(), batch, enriched)

	assert.True(t, workflow.IsPermanent(err))
	assert.ErrorIs(t, err, blob.ErrAccessDenied)
}

func TestStore_RecordCountMismatchIsPermanent(t *testing.T) {
	s := NewStore(blob.NewMemoryStore(), records.NewMemoryRepository(), 1, zap.NewNop())
	batch, enriched := testBatch()

	err := s.Store(context.Background(), batch, enriched[:1])

	assert.True(t, workflow.IsPermanent(err))
}
