package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readYAML(t *testing.T, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(content)))
	return v
}

func TestNewConfig_ValidYAML(t *testing.T) {
	// Arrange
	v := readYAML(t, `
kafka:
  brokers: "localhost:9092,localhost:9093"
  topic:
    name: match-events
    partitions: 6
    replication-factor: 3
    configs:
      - retention.ms=86400000
  admin:
    operation-timeout: 10s
    bootstrap-max-retries: 3
  consumer:
    group-id: processors
    starting-position: earliest
    max-batch-size: 50
    max-batch-window: 5s
    max-in-flight: 8
  producer:
    send-timeout: 2s
    acks: "1"
    topic-wait-timeout: 5s
    fail-on-missing-topic: false
`)

	// Act
	cfg, err := newConfig(v, zap.NewNop())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "localhost:9092,localhost:9093", cfg.Brokers)
	assert.Equal(t, "match-events", cfg.Topic.Name)
	assert.Equal(t, 6, cfg.Topic.Partitions)
	assert.Equal(t, 3, cfg.Topic.ReplicationFactor)
	assert.Equal(t, []string{"retention.ms=86400000"}, cfg.Topic.Configs)
	assert.Equal(t, 10*time.Second, cfg.Admin.OperationTimeout)
	assert.Equal(t, 3, cfg.Admin.BootstrapMaxRetries)
	assert.Equal(t, "processors", cfg.Consumer.GroupID)
	assert.Equal(t, StartingPositionEarliest, cfg.Consumer.StartingPosition)
	assert.Equal(t, 50, cfg.Consumer.MaxBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Consumer.MaxBatchWindow)
	assert.Equal(t, 8, cfg.Consumer.MaxInFlight)
	assert.Equal(t, 2*time.Second, cfg.Producer.SendTimeout)
	assert.Equal(t, "1", cfg.Producer.Acks)
	assert.Equal(t, 5*time.Second, cfg.Producer.TopicWaitTimeout)
	require.NotNil(t, cfg.Producer.FailOnMissingTopic)
	assert.False(t, *cfg.Producer.FailOnMissingTopic)
}

func TestNewConfig_Defaults(t *testing.T) {
	// Arrange
	v := readYAML(t, `
kafka:
  brokers: localhost:9092
`)

	// Act
	cfg, err := newConfig(v, zap.NewNop())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, DefaultTopicName, cfg.Topic.Name)
	assert.Equal(t, 2, cfg.Topic.Partitions)
	assert.Equal(t, 1, cfg.Topic.ReplicationFactor)
	assert.Equal(t, 10, cfg.Consumer.MaxBatchSize)
	assert.Equal(t, 3*time.Second, cfg.Consumer.MaxBatchWindow)
	assert.Equal(t, StartingPositionLatest, cfg.Consumer.StartingPosition)
	assert.Equal(t, defaultMaxInFlight, cfg.Consumer.MaxInFlight)
	assert.Equal(t, 10*time.Second, cfg.Producer.SendTimeout)
	assert.Equal(t, "all", cfg.Producer.Acks)
	assert.Equal(t, 30*time.Second, cfg.Producer.TopicWaitTimeout)
	assert.True(t, *cfg.Producer.FailOnMissingTopic)
}

func TestNewConfig_MissingSection(t *testing.T) {
	_, err := newConfig(viper.New(), zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka brokers cannot be empty")
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		cfg := Config{Brokers: "localhost:9092"}
		applyDefaults(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero partitions", mutate: func(c *Config) { c.Topic.Partitions = -1 }, wantErr: "partitions"},
		{name: "zero replication", mutate: func(c *Config) { c.Topic.ReplicationFactor = -1 }, wantErr: "replication factor"},
		{name: "bad starting position", mutate: func(c *Config) { c.Consumer.StartingPosition = "middle" }, wantErr: "starting position"},
		{name: "batch too large", mutate: func(c *Config) { c.Consumer.MaxBatchSize = maxMaxBatchSize + 1 }, wantErr: "max batch size"},
		{name: "window too small", mutate: func(c *Config) { c.Consumer.MaxBatchWindow = time.Millisecond }, wantErr: "max batch window"},
		{name: "in flight negative", mutate: func(c *Config) { c.Consumer.MaxInFlight = -1 }, wantErr: "max in flight"},
		{name: "reconnect inverted", mutate: func(c *Config) { c.Consumer.ReconnectInitialBackoff = 2 * c.Consumer.ReconnectMaxBackoff }, wantErr: "reconnect"},
		{name: "bad acks", mutate: func(c *Config) { c.Producer.Acks = "some" }, wantErr: "acks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validateConfig(&cfg)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
