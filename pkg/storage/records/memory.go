package records

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/samber/lo"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]match.EnrichedRecord
	puts int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]match.EnrichedRecord{}}
}

func (r *MemoryRepository) Upsert(ctx context.Context, records []match.EnrichedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		rec.Payload = bytes.Clone(rec.Payload)
		r.byID[rec.EventID] = rec
		r.puts++
	}
	return nil
}

func (r *MemoryRepository) FindByMatchAndType(ctx context.Context, matchID string, eventType match.EventType) ([]match.EnrichedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := lo.Filter(lo.Values(r.byID), func(rec match.EnrichedRecord, _ int) bool {
		return rec.MatchID == matchID && rec.EventType == eventType
	})
	sort.Slice(found, func(i, j int) bool {
		if !found[i].OccurredAt.Equal(found[j].OccurredAt) {
			return found[i].OccurredAt.Before(found[j].OccurredAt)
		}
		return found[i].EventID < found[j].EventID
	})
	return found, nil
}

// Len is the number of distinct records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Writes is the number of record writes, including overwrites.
func (r *MemoryRepository) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.puts
}
