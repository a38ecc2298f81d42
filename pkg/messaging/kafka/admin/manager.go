// Package admin provisions and removes the Kafka topics the pipeline depends on.
// It runs as a one-shot deployment step and is never on the serving path.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/match-events/pkg/messaging/kafka/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

var errNoBrokers = errors.New("metadata returned no brokers")

// topicState is what the cluster reports for an existing topic.
type topicState struct {
	Partitions        int
	ReplicationFactor int
}

// Manager creates and deletes topics.
type Manager struct {
	cfg       config.AdminConfig
	resolver  BootstrapResolver
	newClient ClientFactory
	log       *zap.Logger
}

func NewManager(cfg config.AdminConfig, resolver BootstrapResolver, newClient ClientFactory, log *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		resolver:  resolver,
		newClient: newClient,
		log:       log.With(zap.String("component", "topic-manager")),
	}
}

// Provision makes sure the topic exists with the given partition count and replication factor.
// An existing topic with the same shape is left untouched; a different shape is a ConfigConflict.
func (m *Manager) Provision(ctx context.Context, spec TopicSpec) error {
	if err := spec.Validate(); err != nil {
		return newProvisionError(KindUnknown, spec.Name, err)
	}
	log := m.log.With(zap.String("topic", spec.Name))

	client, err := m.connect(ctx)
	if err != nil {
		return newProvisionError(KindBrokerUnreachable, spec.Name, err)
	}
	defer client.Close()

	existing, err := m.describe(client, spec.Name)
	if err != nil {
		return newProvisionError(classify(err), spec.Name, err)
	}
	if existing != nil {
		log.Info("topic already exists", zap.Int("partitions", existing.Partitions),
			zap.Int("replication_factor", existing.ReplicationFactor))
		return reconcile(spec, *existing)
	}

	results, err := client.CreateTopics(ctx, []kafka.TopicSpecification{spec.toKafka()},
		kafka.SetAdminOperationTimeout(m.cfg.OperationTimeout))
	if err != nil {
		return newProvisionError(classify(err), spec.Name, fmt.Errorf("failed to create topic: %w", err))
	}

	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError:
			log.Info("topic created", zap.Int("partitions", spec.Partitions),
				zap.Int("replication_factor", spec.ReplicationFactor))
		case kafka.ErrTopicAlreadyExists:
			log.Info("topic created concurrently, checking its spec")
			return m.reconcileRace(ctx, client, spec)
		default:
			return newProvisionError(classify(result.Error), spec.Name,
				fmt.Errorf("failed to create topic: %w", result.Error))
		}
	}
	return nil
}

// ProvisionAll provisions each spec in order and reports every failure.
func (m *Manager) ProvisionAll(ctx context.Context, specs []TopicSpec) error {
	var errs []error
	for _, spec := range specs {
		if err := m.Provision(ctx, spec); err != nil {
			m.log.Error("failed to provision topic", zap.String("topic", spec.Name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deprovision deletes the topic. A topic that does not exist counts as deleted.
func (m *Manager) Deprovision(ctx context.Context, name string) error {
	log := m.log.With(zap.String("topic", name))

	client, err := m.connect(ctx)
	if err != nil {
		return newProvisionError(KindBrokerUnreachable, name, err)
	}
	defer client.Close()

	results, err := client.DeleteTopics(ctx, []string{name}, kafka.SetAdminOperationTimeout(m.cfg.OperationTimeout))
	if err != nil {
		return newProvisionError(classify(err), name, fmt.Errorf("failed to delete topic: %w", err))
	}

	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError:
			log.Info("topic deleted")
		case kafka.ErrUnknownTopicOrPart:
			log.Info("topic does not exist, nothing to delete")
		default:
			return newProvisionError(classify(result.Error), name,
				fmt.Errorf("failed to delete topic: %w", result.Error))
		}
	}
	return nil
}

// connect resolves the bootstrap servers and opens an admin client, retrying
// with exponential backoff until a broker answers a metadata request.
func (m *Manager) connect(ctx context.Context) (Client, error) {
	var client Client
	attempts := 0

	operation := func() error {
		attempts++
		servers, err := m.resolver.Resolve(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve bootstrap servers: %w", err)
		}

		c, err := m.newClient(servers)
		if err != nil {
			return err
		}

		meta, err := c.GetMetadata(nil, false, m.timeoutMs())
		if err == nil && len(meta.Brokers) == 0 {
			err = errNoBrokers
		}
		if err != nil {
			c.Close()
			return err
		}

		client = c
		return nil
	}

	notify := func(err error, next time.Duration) {
		m.log.Warn("kafka cluster not reachable yet, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, m.bootstrapBackOff(ctx), notify); err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrBrokerUnreachable, attempts, err)
	}
	return client, nil
}

func (m *Manager) bootstrapBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.BootstrapInitialBackoff
	b.MaxInterval = m.cfg.BootstrapMaxBackoff
	b.MaxElapsedTime = 0

	retries := m.cfg.BootstrapMaxRetries - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// describe returns nil when the topic does not exist.
// All topics are listed so the request cannot trigger broker-side auto creation.
func (m *Manager) describe(client Client, name string) (*topicState, error) {
	meta, err := client.GetMetadata(nil, true, m.timeoutMs())
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	topic, ok := meta.Topics[name]
	if !ok || topic.Error.Code() == kafka.ErrUnknownTopicOrPart {
		return nil, nil
	}
	if topic.Error.Code() != kafka.ErrNoError {
		return nil, fmt.Errorf("topic metadata error: %w", topic.Error)
	}

	state := &topicState{Partitions: len(topic.Partitions)}
	for _, p := range topic.Partitions {
		state.ReplicationFactor = max(state.ReplicationFactor, len(p.Replicas))
	}
	return state, nil
}

// reconcileRace waits for the concurrently created topic to show up in metadata
// and applies the usual match rule. The first creator decides the partition count.
func (m *Manager) reconcileRace(ctx context.Context, client Client, spec TopicSpec) error {
	var existing *topicState
	operation := func() error {
		state, err := m.describe(client, spec.Name)
		if err != nil {
			return err
		}
		if state == nil || state.Partitions == 0 {
			return fmt.Errorf("topic %s not yet visible in metadata", spec.Name)
		}
		existing = state
		return nil
	}

	if err := backoff.Retry(operation, m.bootstrapBackOff(ctx)); err != nil {
		return newProvisionError(KindUnknown, spec.Name, err)
	}
	return reconcile(spec, *existing)
}

func reconcile(spec TopicSpec, existing topicState) error {
	if existing.Partitions == spec.Partitions && existing.ReplicationFactor == spec.ReplicationFactor {
		return nil
	}
	return newProvisionError(KindConfigConflict, spec.Name, fmt.Errorf(
		"%w: want partitions=%d replication=%d, have partitions=%d replication=%d",
		ErrConfigConflict, spec.Partitions, spec.ReplicationFactor, existing.Partitions, existing.ReplicationFactor))
}

func (m *Manager) timeoutMs() int {
	return int(m.cfg.OperationTimeout.Milliseconds())
}

func classify(err error) ProvisionErrorKind {
	var kafkaErr kafka.Error
	if !errors.As(err, &kafkaErr) {
		return KindUnknown
	}
	switch kafkaErr.Code() {
	case kafka.ErrTransport, kafka.ErrAllBrokersDown, kafka.ErrNetworkException, kafka.ErrTimedOut:
		return KindBrokerUnreachable
	}
	return KindUnknown
}
