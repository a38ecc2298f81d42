// Package query reads enriched records back by match and event type.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sokol111/match-events/pkg/match"
	"github.com/Sokol111/match-events/pkg/storage/records"
	"go.uber.org/fx"
)

// ErrInvalidQuery wraps a blank match id or an unknown event type.
var ErrInvalidQuery = errors.New("invalid query")

// Service is read-only.
type Service struct {
	records records.Repository
}

func NewService(recs records.Repository) *Service {
	return &Service{records: recs}
}

// QueryByMatchAndType returns the stored records of one match and event type.
// eventType accepts the plural route aliases ("goals", "passes", "fouls").
func (s *Service) QueryByMatchAndType(ctx context.Context, matchID, eventType string) ([]match.EnrichedRecord, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidQuery)
	}
	t, err := match.ParseEventType(eventType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return s.records.FindByMatchAndType(ctx, matchID, t)
}

// NewQueryModule provides the Service. A records.Repository must be provided elsewhere.
func NewQueryModule() fx.Option {
	return fx.Provide(NewService)
}
