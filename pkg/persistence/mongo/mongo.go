// Package mongo wires the MongoDB client used by the indexed record store and
// the failed-execution store.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Mongo gives repositories access to collections.
type Mongo interface {
	Collection(name string) Collection
	Database() *mongo.Database
}

type client struct {
	client   *mongo.Client
	database *mongo.Database
	limiter  *opLimiter
	conf     Config
	log      *zap.Logger
}

func newMongo(log *zap.Logger, conf Config, tp trace.TracerProvider) (*client, error) {
	if err := validateConfig(conf); err != nil {
		return nil, err
	}

	clientOptions := options.Client().
		ApplyURI(conf.BuildURI()).
		SetMaxPoolSize(conf.MaxPoolSize).
		SetMinPoolSize(conf.MinPoolSize).
		SetMaxConnIdleTime(conf.MaxConnIdleTime).
		SetConnectTimeout(conf.ConnectTimeout).
		SetServerSelectionTimeout(conf.ServerSelectTimeout).
		SetMonitor(otelmongo.NewMonitor(otelmongo.WithTracerProvider(tp)))

	// Connect does not perform I/O; connect() pings.
	c, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if conf.MaxConcurrentOps > 0 {
		log.Debug("mongo operation limit", zap.Int("max_concurrent_ops", conf.MaxConcurrentOps))
	}

	return &client{
		client:   c,
		database: c.Database(conf.DatabaseName()),
		limiter:  newOpLimiter(conf.MaxConcurrentOps, conf.BulkheadTimeout),
		conf:     conf,
		log:      log,
	}, nil
}

func (m *client) connect(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, m.conf.ConnectTimeout)
	defer cancel()

	if err := m.client.Ping(c, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	m.log.Info("connected to mongo", zap.String("database", m.database.Name()))
	return nil
}

func (m *client) disconnect(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, m.conf.ConnectTimeout)
	defer cancel()
	if err := m.client.Disconnect(c); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	m.log.Info("disconnected from mongo")
	return nil
}

// Collection returns the named collection with the configured query timeout.
func (m *client) Collection(name string) Collection {
	return &collection{coll: m.database.Collection(name), timeout: m.conf.QueryTimeout, limiter: m.limiter}
}

func (m *client) Database() *mongo.Database {
	return m.database
}
