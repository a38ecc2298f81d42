package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	topicPollInterval = 200 * time.Millisecond
	metadataTimeoutMs = 5000
)

type metadataProvider interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
}

// waitForTopic blocks until a broker reports the event topic with at least one
// partition. A zero timeout waits until ctx ends. With failOnError unset a topic
// that never shows up is only logged: the gateway starts and publishes fail with 503.
func waitForTopic(ctx context.Context, p metadataProvider, topic string, log *zap.Logger, timeout time.Duration, failOnError bool) error {
	log = log.With(zap.String("topic", topic))
	log.Info("waiting for event topic", zap.Duration("timeout", timeout))

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := pollTopic(ctx, p, topic); err != nil {
		if failOnError {
			return err
		}
		log.Warn("event topic not available, continuing; run `topic create` to provision it", zap.Error(err))
		return nil
	}

	log.Info("producer ready")
	return nil
}

func pollTopic(ctx context.Context, p metadataProvider, topic string) error {
	ticker := time.NewTicker(topicPollInterval)
	defer ticker.Stop()

	var reason error
	for {
		if reason = topicStatus(p, topic); reason == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w (last: %w)", ErrBrokerUnavailable, ctx.Err(), reason)
		case <-ticker.C:
		}
	}
}

func topicStatus(p metadataProvider, topic string) error {
	meta, err := p.GetMetadata(&topic, false, metadataTimeoutMs)
	if err != nil {
		return err
	}
	if len(meta.Brokers) == 0 {
		return fmt.Errorf("no brokers in metadata")
	}
	tm, ok := meta.Topics[topic]
	if !ok || tm.Error.Code() == kafka.ErrUnknownTopicOrPart {
		return fmt.Errorf("topic %s does not exist", topic)
	}
	if tm.Error.Code() != kafka.ErrNoError {
		return tm.Error
	}
	if len(tm.Partitions) == 0 {
		return fmt.Errorf("topic %s has no partitions", topic)
	}
	return nil
}
