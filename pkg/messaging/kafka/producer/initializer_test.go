package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testTopic = "football-match-event-topic-001"

type mockMetadataProvider struct {
	getMetadataFunc func(topic *string) (*kafka.Metadata, error)
	calls           int
}

func (m *mockMetadataProvider) GetMetadata(topic *string, _ bool, _ int) (*kafka.Metadata, error) {
	m.calls++
	if m.getMetadataFunc != nil {
		return m.getMetadataFunc(topic)
	}
	return readyMetadata(), nil
}

func readyMetadata() *kafka.Metadata {
	return &kafka.Metadata{
		Brokers: []kafka.BrokerMetadata{{ID: 1}},
		Topics: map[string]kafka.TopicMetadata{
			testTopic: {Topic: testTopic, Partitions: []kafka.PartitionMetadata{{ID: 0}, {ID: 1}}},
		},
	}
}

func missingTopicMetadata() *kafka.Metadata {
	return &kafka.Metadata{
		Brokers: []kafka.BrokerMetadata{{ID: 1}},
		Topics: map[string]kafka.TopicMetadata{
			testTopic: {Topic: testTopic, Error: kafka.NewError(kafka.ErrUnknownTopicOrPart, "unknown topic", false)},
		},
	}
}

func TestWaitForTopic(t *testing.T) {
	t.Run("ready topic", func(t *testing.T) {
		// Arrange
		var asked string
		mock := &mockMetadataProvider{getMetadataFunc: func(topic *string) (*kafka.Metadata, error) {
			asked = *topic
			return readyMetadata(), nil
		}}

		// Act
		err := waitForTopic(context.Background(), mock, testTopic, zap.NewNop(), time.Second, true)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, testTopic, asked)
		assert.Equal(t, 1, mock.calls)
	})

	t.Run("missing topic fails when failOnError", func(t *testing.T) {
		mock := &mockMetadataProvider{getMetadataFunc: func(*string) (*kafka.Metadata, error) {
			return missingTopicMetadata(), nil
		}}

		err := waitForTopic(context.Background(), mock, testTopic, zap.NewNop(), 300*time.Millisecond, true)

		assert.ErrorIs(t, err, ErrBrokerUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("unreachable brokers are tolerated without failOnError", func(t *testing.T) {
		mock := &mockMetadataProvider{getMetadataFunc: func(*string) (*kafka.Metadata, error) {
			return nil, errors.New("no brokers")
		}}

		err := waitForTopic(context.Background(), mock, testTopic, zap.NewNop(), 250*time.Millisecond, false)

		assert.NoError(t, err)
		assert.GreaterOrEqual(t, mock.calls, 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		mock := &mockMetadataProvider{getMetadataFunc: func(*string) (*kafka.Metadata, error) {
			return nil, errors.New("no brokers")
		}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := waitForTopic(ctx, mock, testTopic, zap.NewNop(), 0, true)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPollTopic_WaitsForCreation(t *testing.T) {
	// Arrange
	mock := &mockMetadataProvider{}
	mock.getMetadataFunc = func(*string) (*kafka.Metadata, error) {
		switch mock.calls {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return &kafka.Metadata{}, nil
		case 3:
			return missingTopicMetadata(), nil
		}
		return readyMetadata(), nil
	}

	// Act
	err := pollTopic(context.Background(), mock, testTopic)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 4, mock.calls)
}

func TestTopicStatus_NoPartitions(t *testing.T) {
	mock := &mockMetadataProvider{getMetadataFunc: func(*string) (*kafka.Metadata, error) {
		return &kafka.Metadata{
			Brokers: []kafka.BrokerMetadata{{ID: 1}},
			Topics:  map[string]kafka.TopicMetadata{testTopic: {Topic: testTopic}},
		}, nil
	}}

	assert.ErrorContains(t, topicStatus(mock, testTopic), "no partitions")
}
