package container

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// KafkaContainer is a single-node Redpanda broker speaking the Kafka protocol.
type KafkaContainer struct {
	Container testcontainers.Container
	Brokers   string
}

// KafkaContainerOption configures the Kafka container.
type KafkaContainerOption func(*kafkaContainerOptions)

type kafkaContainerOptions struct {
	image string
}

// WithKafkaImage sets the Redpanda image to use.
func WithKafkaImage(image string) KafkaContainerOption {
	return func(o *kafkaContainerOptions) {
		o.image = image
	}
}

// Kafka starts a broker for the test and terminates it on cleanup. The test is
// skipped when -short is set or the container cannot be started.
func Kafka(t testing.TB, opts ...KafkaContainerOption) *KafkaContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	kc, err := StartKafkaContainer(context.Background(), opts...)
	if err != nil {
		t.Skipf("kafka container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })
	return kc
}

// StartKafkaContainer starts a broker bound to a free host port. The broker
// advertises that same port so clients can follow the metadata it returns.
func StartKafkaContainer(ctx context.Context, opts ...KafkaContainerOption) (*KafkaContainer, error) {
	options := &kafkaContainerOptions{
		image: "redpandadata/redpanda:v24.1.1",
	}
	for _, opt := range opts {
		opt(options)
	}

	hostPort, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve kafka port: %w", err)
	}
	brokers := "localhost:" + hostPort

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        options.image,
			ExposedPorts: []string{"9092/tcp"},
			HostConfigModifier: func(hc *container.HostConfig) {
				hc.PortBindings = nat.PortMap{
					"9092/tcp": []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: hostPort}},
				}
			},
			Cmd: []string{
				"redpanda", "start",
				"--mode", "dev-container",
				"--smp", "1",
				"--memory", "512M",
				"--reserve-memory", "0M",
				"--overprovisioned",
				"--node-id", "0",
				"--kafka-addr", "PLAINTEXT://0.0.0.0:9092",
				"--advertise-kafka-addr", "PLAINTEXT://" + brokers,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("9092/tcp"),
				wait.ForLog("Successfully started Redpanda!"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redpanda container: %w", err)
	}

	return &KafkaContainer{Container: c, Brokers: brokers}, nil
}

// Terminate terminates the container.
func (k *KafkaContainer) Terminate(ctx context.Context) error {
	if k.Container != nil {
		return k.Container.Terminate(ctx)
	}
	return nil
}

func freePort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close() //nolint:errcheck // released for docker to bind
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}
