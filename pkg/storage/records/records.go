// Package records keeps enriched records indexed by (match id, event type).
package records

import (
	"context"

	"github.com/Sokol111/match-events/pkg/match"
)

// Repository upserts records by event id and reads them back by match and type.
type Repository interface {
	// Upsert writes each record under its event id, replacing any earlier version.
	Upsert(ctx context.Context, records []match.EnrichedRecord) error
	// FindByMatchAndType returns the records of a match with the given type,
	// ordered by occurrence time then event id.
	FindByMatchAndType(ctx context.Context, matchID string, eventType match.EventType) ([]match.EnrichedRecord, error)
}
