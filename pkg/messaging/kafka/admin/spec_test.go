package admin

import (
	"testing"

	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecFromConfig(t *testing.T) {
	// Arrange
	tc := config.TopicConfig{
		Name:              "football-match-event-topic-001",
		Partitions:        2,
		ReplicationFactor: 1,
		Configs:           []string{"retention.ms=86400000", " cleanup.policy = delete "},
	}

	// Act
	spec, err := SpecFromConfig(tc)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "football-match-event-topic-001", spec.Name)
	assert.Equal(t, map[string]string{"retention.ms": "86400000", "cleanup.policy": "delete"}, spec.Configs)
}

func TestSpecFromConfig_BadPair(t *testing.T) {
	_, err := SpecFromConfig(config.TopicConfig{Name: "t", Partitions: 1, ReplicationFactor: 1, Configs: []string{"retention.ms"}})

	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestParseTopicSpecs(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		specs, err := ParseTopicSpecs([]byte(`
topics:
  - name: football-match-event-topic-001
    partitions: 2
    replication-factor: 1
    configs:
      retention.ms: "604800000"
  - name: football-match-event-topic-002
    partitions: 4
    replication-factor: 3
`))

		require.NoError(t, err)
		require.Len(t, specs, 2)
		assert.Equal(t, "604800000", specs[0].Configs["retention.ms"])
		assert.Equal(t, 4, specs[1].Partitions)
		assert.Equal(t, 3, specs[1].ReplicationFactor)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ParseTopicSpecs([]byte("topics: []"))
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("duplicate topic", func(t *testing.T) {
		_, err := ParseTopicSpecs([]byte(`
topics:
  - {name: a, partitions: 1, replication-factor: 1}
  - {name: a, partitions: 2, replication-factor: 1}
`))
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("invalid partitions", func(t *testing.T) {
		_, err := ParseTopicSpecs([]byte(`
topics:
  - {name: a, partitions: 0, replication-factor: 1}
`))
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseTopicSpecs([]byte("topics: ["))
		assert.Error(t, err)
	})
}
