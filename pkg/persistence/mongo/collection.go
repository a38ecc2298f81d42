package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrBusy means every operation slot stayed taken for the whole wait.
	ErrBusy = errors.New("mongo: too many concurrent operations")
)

// opLimiter caps concurrent operations across all collections of a client.
type opLimiter struct {
	sem  *semaphore.Weighted
	wait time.Duration
}

func newOpLimiter(limit int, wait time.Duration) *opLimiter {
	if limit <= 0 {
		return nil
	}
	return &opLimiter{sem: semaphore.NewWeighted(int64(limit)), wait: wait}
}

func (l *opLimiter) acquire(ctx context.Context) (release func(), err error) {
	if l == nil {
		return func() {}, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBusy
	}
	return func() { l.sem.Release(1) }, nil
}

// Collection is the subset of collection operations the repositories use.
// Every call runs under the query timeout, and read results are decoded before
// the timeout context is released.
type Collection interface {
	FindOne(ctx context.Context, filter any, result any, opts ...options.Lister[options.FindOneOptions]) error
	FindAll(ctx context.Context, filter any, results any, opts ...options.Lister[options.FindOptions]) error
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...options.Lister[options.BulkWriteOptions]) (*mongo.BulkWriteResult, error)
	Name() string
}

type collection struct {
	coll    *mongo.Collection
	timeout time.Duration
	limiter *opLimiter
}

// NewCollection wraps coll without an operation limit.
func NewCollection(coll *mongo.Collection, timeout time.Duration) Collection {
	return &collection{coll: coll, timeout: timeout}
}

// run waits for a slot, then runs fn under the query timeout. The wait does not count
// against the query timeout.
func (c *collection) run(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := c.limiter.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(ctx)
}

// FindOne decodes the first match into result. A missing document is ErrNotFound.
func (c *collection) FindOne(ctx context.Context, filter any, result any, opts ...options.Lister[options.FindOneOptions]) error {
	return c.run(ctx, func(ctx context.Context) error {
		err := c.coll.FindOne(ctx, filter, opts...).Decode(result)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	})
}

// FindAll decodes every match into results, which must be a pointer to a slice.
func (c *collection) FindAll(ctx context.Context, filter any, results any, opts ...options.Lister[options.FindOptions]) error {
	return c.run(ctx, func(ctx context.Context) error {
		cursor, err := c.coll.Find(ctx, filter, opts...)
		if err != nil {
			return err
		}
		return cursor.All(ctx, results)
	})
}

func (c *collection) CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error) {
	var n int64
	err := c.run(ctx, func(ctx context.Context) error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter, opts...)
		return err
	})
	return n, err
}

func (c *collection) ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error) {
	var res *mongo.UpdateResult
	err := c.run(ctx, func(ctx context.Context) error {
		var err error
		res, err = c.coll.ReplaceOne(ctx, filter, replacement, opts...)
		return err
	})
	return res, err
}

func (c *collection) UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	var res *mongo.UpdateResult
	err := c.run(ctx, func(ctx context.Context) error {
		var err error
		res, err = c.coll.UpdateOne(ctx, filter, update, opts...)
		return err
	})
	return res, err
}

func (c *collection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...options.Lister[options.BulkWriteOptions]) (*mongo.BulkWriteResult, error) {
	var res *mongo.BulkWriteResult
	err := c.run(ctx, func(ctx context.Context) error {
		var err error
		res, err = c.coll.BulkWrite(ctx, models, opts...)
		return err
	})
	return res, err
}

func (c *collection) Name() string {
	return c.coll.Name()
}
