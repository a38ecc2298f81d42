package mongo

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/Sokol111/match-events/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	ConnectionString string `mapstructure:"connection-string"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	ReplicaSet       string `mapstructure:"replica-set"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"`
	DirectConnection bool   `mapstructure:"direct-connection"`

	// Connection pool
	MaxPoolSize         uint64        `mapstructure:"max-pool-size"`
	MinPoolSize         uint64        `mapstructure:"min-pool-size"`
	MaxConnIdleTime     time.Duration `mapstructure:"max-conn-idle-time"`
	ConnectTimeout      time.Duration `mapstructure:"connect-timeout"`
	ServerSelectTimeout time.Duration `mapstructure:"server-select-timeout"`

	// QueryTimeout bounds a single collection operation.
	QueryTimeout time.Duration `mapstructure:"query-timeout"`

	// MaxConcurrentOps caps concurrent collection operations (0 = unlimited).
	MaxConcurrentOps int `mapstructure:"max-concurrent-ops"`
	// BulkheadTimeout is the longest wait for a free operation slot.
	BulkheadTimeout time.Duration `mapstructure:"bulkhead-timeout"`
}

func newConfig(v *viper.Viper, log *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Sub(v, "mongo").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load mongo config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}

	log.Info("loaded mongo config",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Uint64("max-pool-size", cfg.MaxPoolSize),
		zap.Duration("query-timeout", cfg.QueryTimeout),
		zap.Int("max-concurrent-ops", cfg.MaxConcurrentOps),
	)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 100
	}
	if cfg.MinPoolSize == 0 {
		cfg.MinPoolSize = 10
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ServerSelectTimeout == 0 {
		cfg.ServerSelectTimeout = 30 * time.Second
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	if cfg.BulkheadTimeout == 0 {
		cfg.BulkheadTimeout = 5 * time.Second
	}
}

func validateConfig(conf Config) error {
	if conf.MaxConcurrentOps < 0 {
		return fmt.Errorf("invalid mongo config: max concurrent ops cannot be negative, got: %d", conf.MaxConcurrentOps)
	}
	if conf.ConnectionString != "" {
		if conf.DatabaseName() == "" {
			return fmt.Errorf("invalid mongo config: database is required")
		}
		return nil
	}
	if conf.Host == "" || conf.Port == 0 || conf.Database == "" {
		return fmt.Errorf("invalid mongo config: host, port and database are required")
	}
	return nil
}

// DatabaseName is Database, or the path of the connection string when Database is empty.
func (c Config) DatabaseName() string {
	if c.Database != "" {
		return c.Database
	}
	if u, err := url.Parse(c.ConnectionString); err == nil {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}

// BuildURI returns the connection URI, escaping credentials.
func (c Config) BuildURI() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}

	q := url.Values{}
	if c.ReplicaSet != "" {
		q.Set("replicaSet", c.ReplicaSet)
	}
	if c.DirectConnection {
		q.Set("directConnection", "true")
	}
	u.RawQuery = q.Encode()

	return u.String()
}
