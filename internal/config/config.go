// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Voltage is the fixed voltage fed to the pipeline by the primary interface.
	Voltage float64 `koanf:"voltage"`

	// LegacyVoltage is the voltage used by the legacy interface.
	LegacyVoltage float64 `koanf:"legacy_voltage"`

	// PredictionPrecision is the number of decimals predictions are rounded
	// to. Negative disables rounding.
	PredictionPrecision int `koanf:"prediction_precision"`

	// Artifact locations. The extension selects JSON or YAML.
	ScalerPath    string `koanf:"scaler_path"`
	ProjectorPath string `koanf:"projector_path"`
	RegressorPath string `koanf:"regressor_path"`

	// HistoryShards configures the number of shards in the history ledger.
	HistoryShards int `koanf:"history_shards"`

	// SessionSecret signs session tokens. Empty generates a per-process key.
	SessionSecret string `koanf:"session_secret"`

	// SessionTTLMinutes is the session lifetime.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// BcryptCost is the password hashing work factor.
	BcryptCost int `koanf:"bcrypt_cost"`

	// SeedUsers maps usernames to passwords registered at startup.
	SeedUsers map[string]string `koanf:"seed_users"`

	// KafkaBrokers is a comma separated broker list. Empty disables publishing.
	KafkaBrokers string `koanf:"kafka_brokers"`

	// KafkaTopic receives prediction events.
	KafkaTopic string `koanf:"kafka_topic"`

	// KafkaQueueSize bounds the in-memory publish queue.
	KafkaQueueSize int `koanf:"kafka_queue_size"`

	// KafkaWorkers sets the number of publishing workers.
	KafkaWorkers int `koanf:"kafka_workers"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Voltage:             240.0,
		LegacyVoltage:       0.0,
		PredictionPrecision: 8,
		ScalerPath:          "models/scaler.json",
		ProjectorPath:       "models/pca.json",
		RegressorPath:       "models/regressor.json",
		HistoryShards:       16,
		SessionTTLMinutes:   60,
		BcryptCost:          10,
		SeedUsers:           map[string]string{"admin": "1234"},
		KafkaTopic:          "wattcast.predictions",
		KafkaQueueSize:      1024,
		KafkaWorkers:        2,
	}
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// PublishingEnabled reports whether prediction events go to Kafka.
func (c *Config) PublishingEnabled() bool {
	return strings.TrimSpace(c.KafkaBrokers) != ""
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case math.IsNaN(c.Voltage) || math.IsInf(c.Voltage, 0):
		return fmt.Errorf("%w: voltage must be finite", ErrInvalidConfig)
	case math.IsNaN(c.LegacyVoltage) || math.IsInf(c.LegacyVoltage, 0):
		return fmt.Errorf("%w: legacy_voltage must be finite", ErrInvalidConfig)
	case c.PredictionPrecision > 15:
		return fmt.Errorf("%w: prediction_precision must be at most 15, got %d", ErrInvalidConfig, c.PredictionPrecision)
	case c.HistoryShards <= 0:
		return fmt.Errorf("%w: history_shards must be positive, got %d", ErrInvalidConfig, c.HistoryShards)
	case c.SessionTTLMinutes <= 0:
		return fmt.Errorf("%w: session_ttl_minutes must be positive, got %d", ErrInvalidConfig, c.SessionTTLMinutes)
	case c.BcryptCost < 4 || c.BcryptCost > 31:
		return fmt.Errorf("%w: bcrypt_cost must be in [4, 31], got %d", ErrInvalidConfig, c.BcryptCost)
	case c.PublishingEnabled() && strings.TrimSpace(c.KafkaTopic) == "":
		return fmt.Errorf("%w: kafka_topic is required when kafka_brokers is set", ErrInvalidConfig)
	}
	return nil
}
