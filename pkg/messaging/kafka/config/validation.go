package config

import (
	"fmt"
	"strings"
)

// validateConfig validates the entire Kafka configuration
func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Brokers) == "" {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	if err := validateTopic(&cfg.Topic); err != nil {
		return err
	}
	if err := validateConsumer(&cfg.Consumer); err != nil {
		return err
	}
	return validateProducer(&cfg.Producer)
}

func validateTopic(t *TopicConfig) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("topic name cannot be empty")
	}
	if t.Partitions < 1 {
		return fmt.Errorf("topic partitions must be at least 1, got: %d", t.Partitions)
	}
	if t.ReplicationFactor < 1 {
		return fmt.Errorf("topic replication factor must be at least 1, got: %d", t.ReplicationFactor)
	}
	return nil
}

func validateConsumer(c *ConsumerConfig) error {
	if c.StartingPosition != StartingPositionEarliest && c.StartingPosition != StartingPositionLatest {
		return fmt.Errorf("consumer starting position must be 'earliest' or 'latest', got: %s", c.StartingPosition)
	}
	if c.MaxBatchSize < 1 || c.MaxBatchSize > maxMaxBatchSize {
		return fmt.Errorf("consumer max batch size must be between 1 and %d, got: %d", maxMaxBatchSize, c.MaxBatchSize)
	}
	if c.MaxBatchWindow < minMaxBatchWindow || c.MaxBatchWindow > maxMaxBatchWindow {
		return fmt.Errorf("consumer max batch window must be between %v and %v, got: %v",
			minMaxBatchWindow, maxMaxBatchWindow, c.MaxBatchWindow)
	}
	if c.MaxInFlight < 1 || c.MaxInFlight > maxMaxInFlight {
		return fmt.Errorf("consumer max in flight must be between 1 and %d, got: %d", maxMaxInFlight, c.MaxInFlight)
	}
	if c.ReconnectInitialBackoff > c.ReconnectMaxBackoff {
		return fmt.Errorf("consumer reconnect initial backoff (%v) cannot be greater than max backoff (%v)",
			c.ReconnectInitialBackoff, c.ReconnectMaxBackoff)
	}
	return nil
}

func validateProducer(p *ProducerConfig) error {
	switch p.Acks {
	case "all", "-1", "0", "1":
	default:
		return fmt.Errorf("producer acks must be one of all, -1, 0, 1, got: %s", p.Acks)
	}
	if p.TopicWaitTimeout < 0 || p.TopicWaitTimeout > maxTopicWaitTimeout {
		return fmt.Errorf("producer topic wait timeout must be between 0 and %v, got: %v",
			maxTopicWaitTimeout, p.TopicWaitTimeout)
	}
	return nil
}
