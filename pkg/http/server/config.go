package server

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the server section. Both serve and process bind server.port; the process
// role only exposes health routes there.
type Config struct {
	Port       int              `mapstructure:"port"`
	Connection ConnectionConfig `mapstructure:"connection"`
	// Timeout answers 504 from inside the chain, before Connection.WriteTimeout cuts
	// the connection without a response.
	Timeout        TimeoutConfig        `mapstructure:"timeout"`
	RateLimit      RateLimitConfig      `mapstructure:"rate-limit"`
	Bulkhead       BulkheadConfig       `mapstructure:"bulkhead"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit-breaker"`
}

// ConnectionConfig holds the net/http server limits.
type ConnectionConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ReadTimeout       time.Duration `mapstructure:"read-timeout"`
	WriteTimeout      time.Duration `mapstructure:"write-timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle-timeout"`
	MaxHeaderBytes    int           `mapstructure:"max-header-bytes"`
}

type TimeoutConfig struct {
	Enabled        *bool         `mapstructure:"enabled"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

type RateLimitConfig struct {
	Enabled           *bool `mapstructure:"enabled"`
	RequestsPerSecond int   `mapstructure:"requests-per-second"`
	Burst             int   `mapstructure:"burst"`
}

type BulkheadConfig struct {
	Enabled       *bool         `mapstructure:"enabled"`
	MaxConcurrent int           `mapstructure:"max-concurrent"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// CircuitBreakerConfig trips after FailureThreshold consecutive 5xx responses, which on
// the ingest route means the broker stopped acknowledging.
type CircuitBreakerConfig struct {
	Enabled          *bool         `mapstructure:"enabled"`
	FailureThreshold uint32        `mapstructure:"failure-threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Interval         time.Duration `mapstructure:"interval"`
	MaxRequests      uint32        `mapstructure:"max-requests"`
}

func (c TimeoutConfig) IsEnabled() bool        { return isOn(c.Enabled) }
func (c RateLimitConfig) IsEnabled() bool      { return isOn(c.Enabled) }
func (c BulkheadConfig) IsEnabled() bool       { return isOn(c.Enabled) }
func (c CircuitBreakerConfig) IsEnabled() bool { return isOn(c.Enabled) }

func isOn(p *bool) bool { return p != nil && *p }

// onByDefault treats an absent enabled key as true.
func onByDefault(p *bool) *bool {
	if p != nil {
		return p
	}
	on := true
	return &on
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Sub(v, "server").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load server config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger.Info("loaded server config",
		zap.Int("port", cfg.Port),
		zap.Bool("timeout", cfg.Timeout.IsEnabled()),
		zap.Bool("rate_limit", cfg.RateLimit.IsEnabled()),
		zap.Bool("bulkhead", cfg.Bulkhead.IsEnabled()),
		zap.Bool("circuit_breaker", cfg.CircuitBreaker.IsEnabled()),
	)
	return cfg, nil
}

// ApplyDefaults fills unset fields. Limits of a disabled guard stay zero.
func (c *Config) ApplyDefaults() {
	c.Port = cmp.Or(c.Port, 8080)

	c.Timeout.Enabled = onByDefault(c.Timeout.Enabled)
	if c.Timeout.IsEnabled() {
		c.Timeout.RequestTimeout = cmp.Or(c.Timeout.RequestTimeout, 30*time.Second)
	}

	conn := &c.Connection
	conn.ReadHeaderTimeout = cmp.Or(conn.ReadHeaderTimeout, 10*time.Second)
	conn.ReadTimeout = cmp.Or(conn.ReadTimeout, 30*time.Second)
	conn.IdleTimeout = cmp.Or(conn.IdleTimeout, 120*time.Second)
	conn.MaxHeaderBytes = cmp.Or(conn.MaxHeaderBytes, 1<<20)
	if conn.WriteTimeout == 0 {
		// must outlive the request timeout so the 504 can still be written
		conn.WriteTimeout = cmp.Or(c.Timeout.RequestTimeout, 30*time.Second) + 10*time.Second
	}

	c.RateLimit.Enabled = onByDefault(c.RateLimit.Enabled)
	if c.RateLimit.IsEnabled() {
		c.RateLimit.RequestsPerSecond = cmp.Or(c.RateLimit.RequestsPerSecond, 1000)
		c.RateLimit.Burst = cmp.Or(c.RateLimit.Burst, 100)
	}

	c.Bulkhead.Enabled = onByDefault(c.Bulkhead.Enabled)
	if c.Bulkhead.IsEnabled() {
		c.Bulkhead.MaxConcurrent = cmp.Or(c.Bulkhead.MaxConcurrent, 500)
		c.Bulkhead.Timeout = cmp.Or(c.Bulkhead.Timeout, 100*time.Millisecond)
	}

	cb := &c.CircuitBreaker
	cb.Enabled = onByDefault(cb.Enabled)
	if cb.IsEnabled() {
		cb.FailureThreshold = cmp.Or(cb.FailureThreshold, 5)
		cb.Timeout = cmp.Or(cb.Timeout, 30*time.Second)
		cb.Interval = cmp.Or(cb.Interval, 60*time.Second)
		cb.MaxRequests = cmp.Or(cb.MaxRequests, 1)
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 0..65535, got %d", c.Port))
	}
	if c.RateLimit.IsEnabled() && (c.RateLimit.RequestsPerSecond < 1 || c.RateLimit.Burst < 1) {
		errs = append(errs, errors.New("server.rate-limit needs requests-per-second and burst >= 1"))
	}
	if c.Bulkhead.IsEnabled() && c.Bulkhead.MaxConcurrent < 1 {
		errs = append(errs, errors.New("server.bulkhead.max-concurrent must be >= 1"))
	}
	if c.Timeout.IsEnabled() && c.Connection.WriteTimeout <= c.Timeout.RequestTimeout {
		errs = append(errs, fmt.Errorf("server.connection.write-timeout (%v) must exceed server.timeout.request-timeout (%v)",
			c.Connection.WriteTimeout, c.Timeout.RequestTimeout))
	}
	return errors.Join(errs...)
}
