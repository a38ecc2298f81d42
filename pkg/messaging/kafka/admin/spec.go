package admin

import (
	"fmt"
	"os"
	"strings"

	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"gopkg.in/yaml.v3"
)

// TopicSpec describes a topic to provision. Partitions cannot be changed after creation.
type TopicSpec struct {
	Name              string            `yaml:"name"`
	Partitions        int               `yaml:"partitions"`
	ReplicationFactor int               `yaml:"replication-factor"`
	Configs           map[string]string `yaml:"configs"`
}

// Validate checks the spec bounds.
func (s TopicSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSpec)
	}
	if s.Partitions < 1 {
		return fmt.Errorf("%w: %s partitions must be at least 1, got: %d", ErrInvalidSpec, s.Name, s.Partitions)
	}
	if s.ReplicationFactor < 1 {
		return fmt.Errorf("%w: %s replication factor must be at least 1, got: %d", ErrInvalidSpec, s.Name, s.ReplicationFactor)
	}
	return nil
}

func (s TopicSpec) toKafka() kafka.TopicSpecification {
	return kafka.TopicSpecification{
		Topic:             s.Name,
		NumPartitions:     s.Partitions,
		ReplicationFactor: s.ReplicationFactor,
		Config:            s.Configs,
	}
}

// SpecFromConfig builds the spec of the configured match event topic.
func SpecFromConfig(t config.TopicConfig) (TopicSpec, error) {
	spec := TopicSpec{
		Name:              t.Name,
		Partitions:        t.Partitions,
		ReplicationFactor: t.ReplicationFactor,
	}
	for _, kv := range t.Configs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return TopicSpec{}, fmt.Errorf("%w: topic config %q must be key=value", ErrInvalidSpec, kv)
		}
		if spec.Configs == nil {
			spec.Configs = make(map[string]string, len(t.Configs))
		}
		spec.Configs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return spec, spec.Validate()
}

type topicFile struct {
	Topics []TopicSpec `yaml:"topics"`
}

// LoadTopicSpecs reads a YAML file of the form:
//
//	topics:
//	  - name: football-match-event-topic-001
//	    partitions: 2
//	    replication-factor: 1
//	    configs:
//	      retention.ms: "604800000"
func LoadTopicSpecs(path string) ([]TopicSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic file %s: %w", path, err)
	}
	return ParseTopicSpecs(content)
}

// ParseTopicSpecs decodes and validates topic specs from YAML.
func ParseTopicSpecs(content []byte) ([]TopicSpec, error) {
	var tf topicFile
	if err := yaml.Unmarshal(content, &tf); err != nil {
		return nil, fmt.Errorf("invalid topic yaml: %w", err)
	}
	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics defined", ErrInvalidSpec)
	}

	seen := make(map[string]struct{}, len(tf.Topics))
	for _, spec := range tf.Topics {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("%w: topic %s defined twice", ErrInvalidSpec, spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return tf.Topics, nil
}
