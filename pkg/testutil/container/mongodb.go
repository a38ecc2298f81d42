// Package container starts the Mongo and Kafka dependencies of integration tests.
// Tests using it are skipped under -short or when no Docker daemon answers.
package container

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// TestDatabase is the database integration tests write to.
const TestDatabase = "matches"

// MongoDBContainer is a running mongod with a connected client.
type MongoDBContainer struct {
	Container        *mongodb.MongoDBContainer
	Client           *mongo.Client
	ConnectionString string
}

// MongoDBContainerOption configures the MongoDB container.
type MongoDBContainerOption func(*mongoDBContainerOptions)

type mongoDBContainerOptions struct {
	image      string
	replicaSet string
}

// WithImage sets the MongoDB image to use.
func WithImage(image string) MongoDBContainerOption {
	return func(o *mongoDBContainerOptions) {
		o.image = image
	}
}

// WithReplicaSet starts mongod as a single-member replica set.
func WithReplicaSet(name string) MongoDBContainerOption {
	return func(o *mongoDBContainerOptions) {
		o.replicaSet = name
	}
}

// Mongo starts a container for the test and terminates it on cleanup. The test is
// skipped when -short is set or the container cannot be started.
func Mongo(t testing.TB, opts ...MongoDBContainerOption) *MongoDBContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	mc, err := StartMongoDBContainer(context.Background(), opts...)
	if err != nil {
		t.Skipf("mongo container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = mc.Terminate(context.Background()) })
	return mc
}

// StartMongoDBContainer starts mongod and waits until the client answers a ping.
func StartMongoDBContainer(ctx context.Context, opts ...MongoDBContainerOption) (*MongoDBContainer, error) {
	options := &mongoDBContainerOptions{image: "mongo:7"}
	for _, opt := range opts {
		opt(options)
	}

	var customizers []testcontainers.ContainerCustomizer
	if options.replicaSet != "" {
		customizers = append(customizers, mongodb.WithReplicaSet(options.replicaSet))
	}

	c, err := mongodb.Run(ctx, options.image, customizers...)
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}
	mc := &MongoDBContainer{Container: c}

	if mc.ConnectionString, err = c.ConnectionString(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to get connection string: %w", err), mc.Terminate(ctx))
	}
	if mc.Client, err = mongo.Connect(mongooptions.Client().ApplyURI(mc.ConnectionString)); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to mongodb: %w", err), mc.Terminate(ctx))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mc.Client.Ping(pingCtx, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping mongodb: %w", err), mc.Terminate(ctx))
	}

	return mc, nil
}

// Database returns a handle to the named database, TestDatabase when name is empty.
func (m *MongoDBContainer) Database(name string) *mongo.Database {
	if name == "" {
		name = TestDatabase
	}
	return m.Client.Database(name)
}

// DatabaseURI is the connection string with the database in its path, the form the
// migrator expects.
func (m *MongoDBContainer) DatabaseURI(name string) (string, error) {
	u, err := url.Parse(m.ConnectionString)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = TestDatabase
	}
	u.Path = "/" + name
	return u.String(), nil
}

// Terminate disconnects the client and removes the container.
func (m *MongoDBContainer) Terminate(ctx context.Context) error {
	var errs []error
	if m.Client != nil {
		if err := m.Client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect from mongodb: %w", err))
		}
	}
	if m.Container != nil {
		if err := testcontainers.TerminateContainer(m.Container); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate mongodb container: %w", err))
		}
	}
	return errors.Join(errs...)
}
