package records

import (
	"context"
	"fmt"

	"github.com/Sokol111/match-events/pkg/match"
	pmongo "github.com/Sokol111/match-events/pkg/persistence/mongo"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection holds the enriched records.
const DefaultCollection = "match_events"

type MongoRepository struct {
	coll pmongo.Collection
}

func NewMongoRepository(coll pmongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) Upsert(ctx context.Context, records []match.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := lo.Map(records, func(rec match.EnrichedRecord, _ int) mongo.WriteModel {
		return mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: rec.EventID}}).
			SetReplacement(rec).
			SetUpsert(true)
	})

	if _, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to upsert %d records: %w", len(records), err)
	}
	return nil
}

func (r *MongoRepository) FindByMatchAndType(ctx context.Context, matchID string, eventType match.EventType) ([]match.EnrichedRecord, error) {
	filter := bson.D{
		{Key: "matchId", Value: matchID},
		{Key: "eventType", Value: eventType},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "occurredAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	result := []match.EnrichedRecord{}
	if err := r.coll.FindAll(ctx, filter, &result, opts); err != nil {
		return nil, fmt.Errorf("failed to find records of match %s: %w", matchID, err)
	}
	return result, nil
}
