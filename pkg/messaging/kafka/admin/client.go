package admin

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Client is the subset of *kafka.AdminClient used by the Manager.
type Client interface {
	CreateTopics(ctx context.Context, topics []kafka.TopicSpecification, options ...kafka.CreateTopicsAdminOption) ([]kafka.TopicResult, error)
	DeleteTopics(ctx context.Context, topics []string, options ...kafka.DeleteTopicsAdminOption) ([]kafka.TopicResult, error)
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	Close()
}

// ClientFactory opens an admin connection to the given bootstrap servers.
type ClientFactory func(bootstrapServers string) (Client, error)

// NewConfluentClient is the ClientFactory backed by librdkafka.
func NewConfluentClient(bootstrapServers string) (Client, error) {
	c, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin client: %w", err)
	}
	return c, nil
}

// BootstrapResolver returns the bootstrap endpoints of the cluster.
// Implementations may fail while the cluster is still initializing.
type BootstrapResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticResolver resolves to a fixed broker list.
type StaticResolver string

func (r StaticResolver) Resolve(context.Context) (string, error) {
	if r == "" {
		return "", fmt.Errorf("no bootstrap servers configured")
	}
	return string(r), nil
}
