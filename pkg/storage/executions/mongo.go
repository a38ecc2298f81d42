// Package executions keeps failed workflow executions for inspection and resubmission.
package executions

import (
	"context"
	"errors"
	"fmt"
	"time"

	pmongo "github.com/Sokol111/match-events/pkg/persistence/mongo"
	"github.com/Sokol111/match-events/pkg/workflow"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection holds failed executions.
const DefaultCollection = "failed_executions"

const defaultListLimit = 50

// MongoRepository implements workflow.FailureStore.
type MongoRepository struct {
	coll pmongo.Collection
}

func NewMongoRepository(coll pmongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// Save stores a failed execution; saving the same id twice keeps the last version.
func (r *MongoRepository) Save(ctx context.Context, failed workflow.FailedExecution) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: failed.ID}},
		failed,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", failed.ID, err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (workflow.FailedExecution, error) {
	var failed workflow.FailedExecution
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}, &failed)
	if errors.Is(err, pmongo.ErrNotFound) {
		return failed, fmt.Errorf("%w: %s", workflow.ErrExecutionNotFound, id)
	}
	if err != nil {
		return failed, fmt.Errorf("failed to get execution %s: %w", id, err)
	}
	return failed, nil
}

// List returns the most recent failures first.
func (r *MongoRepository) List(ctx context.Context, filter workflow.ListFilter) ([]workflow.FailedExecution, error) {
	query := bson.D{}
	if !filter.IncludeResubmitted {
		query = append(query, bson.E{Key: "resubmittedAt", Value: bson.D{{Key: "$exists", Value: false}}})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "failedAt", Value: -1}}).
		SetLimit(int64(limit))

	result := []workflow.FailedExecution{}
	if err := r.coll.FindAll(ctx, query, &result, opts); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return result, nil
}

// MarkResubmitted records that id was re-run as executionID. It fails with
// workflow.ErrAlreadyResubmitted when another resubmission won.
func (r *MongoRepository) MarkResubmitted(ctx context.Context, id, executionID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "resubmittedAt", Value: bson.D{{Key: "$exists", Value: false}}},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "resubmittedAt", Value: at},
			{Key: "resubmittedAs", Value: executionID},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark execution %s resubmitted: %w", id, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", workflow.ErrAlreadyResubmitted, id)
}
