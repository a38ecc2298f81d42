package config

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *Config) {
	if cfg.Topic.Name == "" {
		cfg.Topic.Name = DefaultTopicName
	}
	if cfg.Topic.Partitions == 0 {
		cfg.Topic.Partitions = defaultPartitions
	}
	if cfg.Topic.ReplicationFactor == 0 {
		cfg.Topic.ReplicationFactor = defaultReplicationFactor
	}

	if cfg.Admin.OperationTimeout == 0 {
		cfg.Admin.OperationTimeout = defaultOperationTimeout
	}
	if cfg.Admin.BootstrapMaxRetries == 0 {
		cfg.Admin.BootstrapMaxRetries = defaultBootstrapMaxRetries
	}
	if cfg.Admin.BootstrapInitialBackoff == 0 {
		cfg.Admin.BootstrapInitialBackoff = defaultBootstrapInitialBackoff
	}
	if cfg.Admin.BootstrapMaxBackoff == 0 {
		cfg.Admin.BootstrapMaxBackoff = defaultBootstrapMaxBackoff
	}

	applyConsumerDefaults(&cfg.Consumer)
	applyProducerDefaults(&cfg.Producer)
}

func applyConsumerDefaults(c *ConsumerConfig) {
	if c.GroupID == "" {
		c.GroupID = defaultGroupID
	}
	if c.StartingPosition == "" {
		c.StartingPosition = defaultStartingPosition
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = defaultMaxBatchSize
	}
	if c.MaxBatchWindow == 0 {
		c.MaxBatchWindow = defaultMaxBatchWindow
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = defaultMaxInFlight
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.ReconnectInitialBackoff == 0 {
		c.ReconnectInitialBackoff = defaultReconnectInitialBackoff
	}
	if c.ReconnectMaxBackoff == 0 {
		c.ReconnectMaxBackoff = defaultReconnectMaxBackoff
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = defaultSessionTimeout
	}
}

func applyProducerDefaults(p *ProducerConfig) {
	if p.SendTimeout == 0 {
		p.SendTimeout = defaultSendTimeout
	}
	if p.Acks == "" {
		p.Acks = defaultAcks
	}
	if p.TopicWaitTimeout == 0 {
		p.TopicWaitTimeout = defaultTopicWaitTimeout
	}
	if p.FailOnMissingTopic == nil {
		failOnMissingTopic := true
		p.FailOnMissingTopic = &failOnMissingTopic
	}
}
