package config

import "time"

// StartingPosition is where a consumer group without committed offsets starts reading.
type StartingPosition string

const (
	StartingPositionEarliest StartingPosition = "earliest"
	StartingPositionLatest   StartingPosition = "latest"
)

// Config represents the main Kafka configuration.
type Config struct {
	Brokers  string         `mapstructure:"brokers"`  // Comma-separated list of bootstrap broker addresses
	Topic    TopicConfig    `mapstructure:"topic"`    // The match event topic
	Admin    AdminConfig    `mapstructure:"admin"`    // Topic provisioning settings
	Consumer ConsumerConfig `mapstructure:"consumer"` // Batch consumer settings
	Producer ProducerConfig `mapstructure:"producer"` // Ingest producer settings
}

// TopicConfig describes the partitioned topic events are published to.
type TopicConfig struct {
	Name              string   `mapstructure:"name"`               // Topic name
	Partitions        int      `mapstructure:"partitions"`         // Partition count, fixed at creation (>=1)
	ReplicationFactor int      `mapstructure:"replication-factor"` // Replication factor (>=1)
	Configs           []string `mapstructure:"configs"`            // Extra topic-level configs as key=value (e.g. retention.ms=86400000)
}

// AdminConfig holds topic provisioning settings.
type AdminConfig struct {
	OperationTimeout        time.Duration `mapstructure:"operation-timeout"`         // Broker-side timeout for create/delete requests
	BootstrapMaxRetries     int           `mapstructure:"bootstrap-max-retries"`     // Attempts to reach the cluster before giving up
	BootstrapInitialBackoff time.Duration `mapstructure:"bootstrap-initial-backoff"` // First delay between bootstrap attempts
	BootstrapMaxBackoff     time.Duration `mapstructure:"bootstrap-max-backoff"`     // Ceiling for the bootstrap delay
}

// ConsumerConfig holds batch consumer settings.
type ConsumerConfig struct {
	GroupID                 string           `mapstructure:"group-id"`                  // Consumer group ID
	StartingPosition        StartingPosition `mapstructure:"starting-position"`         // "earliest" or "latest"
	MaxBatchSize            int              `mapstructure:"max-batch-size"`            // Events per batch (processingBatchSize)
	MaxBatchWindow          time.Duration    `mapstructure:"max-batch-window"`          // Accumulation window (processingBatchWindow)
	MaxInFlight             int              `mapstructure:"max-in-flight"`             // Concurrent workflow executions before reads pause
	PollTimeout             time.Duration    `mapstructure:"poll-timeout"`              // ReadMessage timeout
	ReconnectInitialBackoff time.Duration    `mapstructure:"reconnect-initial-backoff"` // First delay before reconnecting
	ReconnectMaxBackoff     time.Duration    `mapstructure:"reconnect-max-backoff"`     // Ceiling for the reconnect delay
	ReconnectMaxElapsed     time.Duration    `mapstructure:"reconnect-max-elapsed"`     // Give up reconnecting after this long (0 = never)
	SessionTimeout          time.Duration    `mapstructure:"session-timeout"`           // Group session timeout
}

// ProducerConfig represents configuration for the Kafka producer.
type ProducerConfig struct {
	SendTimeout        time.Duration `mapstructure:"send-timeout"`          // Max wait for a delivery report
	Acks               string        `mapstructure:"acks"`                  // "all", "1" or "0"
	TopicWaitTimeout   time.Duration `mapstructure:"topic-wait-timeout"`    // Startup wait for the event topic to appear in metadata
	FailOnMissingTopic *bool         `mapstructure:"fail-on-missing-topic"` // Fail startup when the topic is still missing after the wait
}
