package consumer

import (
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// MessageSource is the subset of *kafka.Consumer used by the BatchConsumer.
type MessageSource interface {
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	StoreOffsets(offsets []kafka.TopicPartition) ([]kafka.TopicPartition, error)
	Commit() ([]kafka.TopicPartition, error)
	Close() error
}

// SourceFactory opens a new connection. It is called again after a connection is lost.
type SourceFactory func() (MessageSource, error)

// NewConfluentSource returns a factory of librdkafka consumers. Offsets are
// stored explicitly once a batch is done and committed in the background.
func NewConfluentSource(conf config.Config) SourceFactory {
	return func() (MessageSource, error) {
		c, err := kafka.NewConsumer(&kafka.ConfigMap{
			"bootstrap.servers":        conf.Brokers,
			"group.id":                 conf.Consumer.GroupID,
			"enable.auto.commit":       true,
			"enable.auto.offset.store": false,
			"auto.commit.interval.ms":  3000,
			"auto.offset.reset":        string(conf.Consumer.StartingPosition),
			"session.timeout.ms":       int(conf.Consumer.SessionTimeout.Milliseconds()),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		return c, nil
	}
}
