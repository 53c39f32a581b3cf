// Package config loads the server configuration from YAML with
// environment overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Data struct {
		WALDir      string `yaml:"wal_dir"`
		OutboxDir   string `yaml:"outbox_dir"`
		SnapshotDir string `yaml:"snapshot_dir"`
	} `yaml:"data"`

	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		TradesTopic string   `yaml:"trades_topic"`
		TicksTopic  string   `yaml:"ticks_topic"`
	} `yaml:"kafka"`

	Snapshot struct {
		IntervalSec int `yaml:"interval_sec"`
	} `yaml:"snapshot"`

	Marketdata struct {
		IntervalMS int `yaml:"interval_ms"`
	} `yaml:"marketdata"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads path, applies defaults and env overrides, and validates.
// A missing file yields a default config so the server can run
// standalone (no Kafka, local data dirs).
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Data.WALDir == "" {
		c.Data.WALDir = "data/wal"
	}
	if c.Data.OutboxDir == "" {
		c.Data.OutboxDir = "data/outbox"
	}
	if c.Data.SnapshotDir == "" {
		c.Data.SnapshotDir = "data/snapshot"
	}
	if c.Kafka.TradesTopic == "" {
		c.Kafka.TradesTopic = "miniex.trades"
	}
	if c.Kafka.TicksTopic == "" {
		c.Kafka.TicksTopic = "miniex.ticks"
	}
	if c.Snapshot.IntervalSec == 0 {
		c.Snapshot.IntervalSec = 60
	}
	if c.Marketdata.IntervalMS == 0 {
		c.Marketdata.IntervalMS = 250
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) overrideWithEnv() {
	if addr := os.Getenv("MINIEX_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if brokers := os.Getenv("MINIEX_KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if level := os.Getenv("MINIEX_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Snapshot.IntervalSec < 0 {
		return fmt.Errorf("snapshot interval must be >= 0")
	}
	if c.Marketdata.IntervalMS < 0 {
		return fmt.Errorf("marketdata interval must be >= 0")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// KafkaEnabled reports whether downstream publication is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Snapshot.IntervalSec) * time.Second
}

func (c *Config) MarketdataInterval() time.Duration {
	return time.Duration(c.Marketdata.IntervalMS) * time.Millisecond
}
