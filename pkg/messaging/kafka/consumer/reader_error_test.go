package consumer

import (
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyReadError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType readErrorType
		wantKey  string
	}{
		{name: "timeout", err: kafka.NewError(kafka.ErrTimedOut, "timed out", false), wantType: readErrorTimeout},
		{name: "fatal", err: kafka.NewError(kafka.ErrFatal, "fenced", true), wantType: readErrorFatal},
		{name: "unknown topic", err: kafka.NewError(kafka.ErrUnknownTopicOrPart, "", false), wantType: readErrorTopicNotFound, wantKey: "topic_not_found"},
		{name: "all brokers down", err: kafka.NewError(kafka.ErrAllBrokersDown, "", false), wantType: readErrorBrokerConnection, wantKey: "broker_connection"},
		{name: "transport", err: kafka.NewError(kafka.ErrTransport, "", false), wantType: readErrorBrokerConnection, wantKey: "broker_connection"},
		{name: "leader election", err: kafka.NewError(kafka.ErrLeaderNotAvailable, "", false), wantType: readErrorLeaderElection, wantKey: "leader_election"},
		{name: "non kafka", err: errors.New("boom"), wantType: readErrorUnknown, wantKey: "non_kafka_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyReadError(tt.err)

			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.errorType)
			assert.Equal(t, tt.wantKey, got.errorKey)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyReadError_Nil(t *testing.T) {
	assert.Nil(t, classifyReadError(nil))
}

func TestConsumeError(t *testing.T) {
	cause := errors.New("socket closed")
	err := connectionLost(cause)

	assert.ErrorIs(t, err, ErrConnectionLost)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection_lost")
}
