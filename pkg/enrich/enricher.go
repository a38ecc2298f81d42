// Package enrich derives the enriched record of each event in a batch.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/workflow"
	"go.uber.org/fx"
)

// Enricher is a pure transform: it reads the batch and builds new records.
type Enricher struct {
	now func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClock replaces time.Now for EnrichedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

func NewEnricher(opts ...Option) *Enricher {
	e := &Enricher{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns one record per event, in batch order. An event whose
// timestamp cannot be parsed fails the whole batch permanently.
func (e *Enricher) Enrich(ctx context.Context, batch match.Batch) ([]match.EnrichedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enrichedAt := e.now().UTC()
	records := make([]match.EnrichedRecord, 0, batch.Len())
	for _, ev := range batch.Events {
		occurredAt, err := ev.OccurredAt()
		if err != nil {
			return nil, workflow.MarkPermanent(fmt.Errorf("event %s: %w", ev.ID, err))
		}
		records = append(records, match.EnrichedRecord{
			EventID:     ev.ID,
			MatchID:     ev.MatchID,
			EventType:   ev.EventType,
			Team:        ev.Team,
			Player:      ev.Player,
			Timestamp:   ev.Timestamp,
			OccurredAt:  occurredAt,
			Payload:     bytes.Clone(ev.Payload),
			PublishedAt: ev.PublishedAt,
			Season:      Season(occurredAt),
			EnrichedAt:  enrichedAt,
		})
	}
	return records, nil
}

// NewEnrichModule provides the Enricher as the workflow's enrich step.
func NewEnrichModule() fx.Option {
	return fx.Provide(
		fx.Annotate(func() *Enricher { return NewEnricher() }, fx.As(new(workflow.Enricher))),
	)
}
