package producer

import (
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// PublishErrorKind classifies a publish failure.
type PublishErrorKind int

const (
	KindUnknown PublishErrorKind = iota
	// KindBrokerUnavailable means the message could not reach a partition leader.
	KindBrokerUnavailable
	// KindTimeout means no delivery report arrived within the send timeout.
	KindTimeout
)

func (k PublishErrorKind) String() string {
	switch k {
	case KindBrokerUnavailable:
		return "broker_unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

var (
	ErrBrokerUnavailable = errors.New("kafka broker unavailable")
	ErrPublishTimeout    = errors.New("kafka publish timed out")
)

// PublishError is returned by Publisher.Publish.
// Delivery is at-least-once: a failed publish may still have been written.
type PublishError struct {
	Kind  PublishErrorKind
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s (%s): %v", e.Topic, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func (e *PublishError) Is(target error) bool {
	switch target {
	case ErrBrokerUnavailable:
		return e.Kind == KindBrokerUnavailable
	case ErrPublishTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

func wrapPublishError(topic string, err error) *PublishError {
	return &PublishError{Kind: classify(err), Topic: topic, Err: err}
}

func classify(err error) PublishErrorKind {
	var kafkaErr kafka.Error
	if !errors.As(err, &kafkaErr) {
		return KindUnknown
	}

	switch kafkaErr.Code() {
	case kafka.ErrMsgTimedOut, kafka.ErrTimedOut, kafka.ErrRequestTimedOut, kafka.ErrTimedOutQueue:
		return KindTimeout
	case kafka.ErrTransport, kafka.ErrAllBrokersDown, kafka.ErrNetworkException,
		kafka.ErrQueueFull, kafka.ErrLeaderNotAvailable, kafka.ErrNotLeaderForPartition,
		kafka.ErrUnknownTopicOrPart, kafka.ErrNotEnoughReplicas:
		return KindBrokerUnavailable
	}

	if kafkaErr.IsTimeout() {
		return KindTimeout
	}
	return KindUnknown
}
