package consumer

import (
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// readErrorType is the category of an error returned by ReadMessage.
type readErrorType int

const (
	readErrorTimeout readErrorType = iota
	readErrorFatal
	readErrorTopicNotFound
	readErrorBrokerConnection
	readErrorLeaderElection
	readErrorRetriable
	readErrorUnknown
)

// brokerConnectionKey throttles broker connection warnings until a read succeeds again.
const brokerConnectionKey = "broker_connection"

// readerError wraps a read error with its classification.
type readerError struct {
	err         error
	errorType   readErrorType
	errorKey    string // throttling key for logs
	description string
}

func (e *readerError) Error() string {
	if e.description != "" {
		return fmt.Sprintf("%s: %v", e.description, e.err)
	}
	return e.err.Error()
}

func (e *readerError) Unwrap() error {
	return e.err
}

// classifyReadError returns nil for a nil error.
func classifyReadError(err error) *readerError {
	if err == nil {
		return nil
	}

	var kafkaErr kafka.Error
	if !errors.As(err, &kafkaErr) {
		return &readerError{err: err, errorType: readErrorUnknown, errorKey: "non_kafka_error", description: "non-kafka error occurred"}
	}

	if kafkaErr.IsTimeout() || kafkaErr.Code() == kafka.ErrTimedOut {
		return &readerError{err: err, errorType: readErrorTimeout}
	}

	if kafkaErr.IsFatal() {
		return &readerError{err: err, errorType: readErrorFatal, description: "fatal kafka error, consumer instance is no longer operable"}
	}

	switch kafkaErr.Code() {
	case kafka.ErrUnknownTopicOrPart:
		return &readerError{err: err, errorType: readErrorTopicNotFound, errorKey: "topic_not_found", description: "topic not available, waiting for topic creation"}
	case kafka.ErrTransport, kafka.ErrAllBrokersDown, kafka.ErrNetworkException:
		return &readerError{err: err, errorType: readErrorBrokerConnection, errorKey: brokerConnectionKey, description: "broker connection issue"}
	case kafka.ErrLeaderNotAvailable, kafka.ErrNotLeaderForPartition:
		return &readerError{err: err, errorType: readErrorLeaderElection, errorKey: "leader_election", description: "partition leader changing"}
	}

	if kafkaErr.IsRetriable() {
		return &readerError{err: err, errorType: readErrorRetriable, errorKey: "retriable_error", description: "retriable kafka error"}
	}

	return &readerError{err: err, errorType: readErrorUnknown, errorKey: "unknown_error", description: "unknown kafka error"}
}

func (e *readerError) isTimeout() bool {
	return e.errorType == readErrorTimeout
}

func (e *readerError) isFatal() bool {
	return e.errorType == readErrorFatal
}

func (e *readerError) isConnectionError() bool {
	return e.errorType == readErrorBrokerConnection
}
