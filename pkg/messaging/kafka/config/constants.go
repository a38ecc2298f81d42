package config

import "time"

const (
	// Default values.
	DefaultTopicName               = "football-match-event-topic-001"
	defaultPartitions              = 2
	defaultReplicationFactor       = 1
	defaultOperationTimeout        = 30 * time.Second
	defaultBootstrapMaxRetries     = 10
	defaultBootstrapInitialBackoff = 1 * time.Second
	defaultBootstrapMaxBackoff     = 30 * time.Second
	defaultGroupID                 = "match-events-processor"
	defaultStartingPosition        = StartingPositionLatest
	defaultMaxBatchSize            = 10
	defaultMaxBatchWindow          = 3 * time.Second
	defaultMaxInFlight             = 4
	defaultPollTimeout             = 500 * time.Millisecond
	defaultReconnectInitialBackoff = 1 * time.Second
	defaultReconnectMaxBackoff     = 1 * time.Minute
	defaultSessionTimeout          = 45 * time.Second
	defaultSendTimeout             = 10 * time.Second
	defaultAcks                    = "all"
	defaultTopicWaitTimeout        = 30 * time.Second

	// Validation bounds.
	maxMaxBatchSize     = 10000
	minMaxBatchWindow   = 10 * time.Millisecond
	maxMaxBatchWindow   = 5 * time.Minute
	maxMaxInFlight      = 1000
	maxTopicWaitTimeout = 10 * time.Minute
)
