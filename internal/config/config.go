// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	Events   EventsConfig   `yaml:"events"`
	Health   HealthConfig   `yaml:"health"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Logging:  DefaultLoggingConfig(),
		Ingest:   DefaultIngestConfig(),
		Snapshot: DefaultSnapshotConfig(),
		PubSub:   DefaultPubSubConfig(),
		Events:   DefaultEventsConfig(),
		Health:   DefaultHealthConfig(),
	}
}

// Load loads configuration from a YAML file over the defaults.
// Order: defaults -> file -> ApplyDefaults -> Validate. A missing file is
// not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Logging.ApplyDefaults()
	cfg.Ingest.ApplyDefaults()
	cfg.Snapshot.ApplyDefaults()
	cfg.PubSub.ApplyDefaults()
	cfg.Events.ApplyDefaults()
	cfg.Health.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := c.Snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := c.PubSub.Validate(); err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Health.Validate(); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}
