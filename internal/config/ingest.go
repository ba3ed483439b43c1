package config

import (
	"errors"
	"fmt"
	"time"
)

// IngestConfig holds polling and fetch configuration.
type IngestConfig struct {
	// SourceURL is the cart collection endpoint.
	SourceURL string `yaml:"source_url"`

	// PollInterval is the inter-poll sleep.
	PollInterval time.Duration `yaml:"poll_interval"`

	// FetchTimeout bounds a single HTTP request.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// FetchRetries is the fetch attempt ceiling per cycle.
	FetchRetries int `yaml:"fetch_retries"`

	// FetchBackoff is the initial fetch retry delay; doubles per attempt.
	FetchBackoff time.Duration `yaml:"fetch_backoff"`
}

// DefaultIngestConfig returns sensible defaults for IngestConfig.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		SourceURL:    "https://fakestoreapi.com/carts",
		PollInterval: 60 * time.Second,
		FetchTimeout: 30 * time.Second,
		FetchRetries: 3,
		FetchBackoff: 2 * time.Second,
	}
}

// ApplyDefaults fills in missing values with defaults
func (c *IngestConfig) ApplyDefaults() {
	def := DefaultIngestConfig()
	if c.SourceURL == "" {
		c.SourceURL = def.SourceURL
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = def.FetchRetries
	}
	if c.FetchBackoff <= 0 {
		c.FetchBackoff = def.FetchBackoff
	}
}

// Validate validates the IngestConfig.
func (c *IngestConfig) Validate() error {
	if c.SourceURL == "" {
		return errors.New("source_url is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.FetchRetries <= 0 {
		return errors.New("fetch_retries must be positive")
	}
	return nil
}

// SnapshotConfig selects and configures the snapshot store backend.
type SnapshotConfig struct {
	// Backend type: "file" or "mongodb"
	Backend string `yaml:"backend"`

	// Path is the snapshot file location (file backend).
	Path string `yaml:"path"`

	// MongoURI and MongoDatabase configure the mongodb backend.
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	// StoreID distinguishes multiple pipelines sharing one collection.
	StoreID string `yaml:"store_id"`
}

// DefaultSnapshotConfig returns sensible defaults for SnapshotConfig.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Backend: "file",
		Path:    "state/carts_state.json",
		StoreID: "carts",
	}
}

// ApplyDefaults fills in missing values with defaults
func (c *SnapshotConfig) ApplyDefaults() {
	def := DefaultSnapshotConfig()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Path == "" {
		c.Path = def.Path
	}
	if c.StoreID == "" {
		c.StoreID = def.StoreID
	}
}

// Validate validates the SnapshotConfig.
func (c *SnapshotConfig) Validate() error {
	switch c.Backend {
	case "file":
		if c.Path == "" {
			return errors.New("path is required for the file backend")
		}
	case "mongodb":
		if c.MongoURI == "" {
			return errors.New("mongo_uri is required for the mongodb backend")
		}
		if c.MongoDatabase == "" {
			return errors.New("mongo_database is required for the mongodb backend")
		}
	default:
		return fmt.Errorf("backend must be 'file' or 'mongodb', got %q", c.Backend)
	}
	return nil
}

// PubSubConfig configures the broker connection and publish retry policy.
type PubSubConfig struct {
	// URL is the NATS server address.
	URL string `yaml:"url"`

	// Stream is the JetStream stream name.
	Stream string `yaml:"stream"`

	// SubjectPrefix is prepended to the per-cart ordering subject.
	SubjectPrefix string `yaml:"subject_prefix"`

	// Storage is the stream storage type: "memory" or "file".
	Storage string `yaml:"storage"`

	// PublishAttempts is the per-event attempt ceiling.
	PublishAttempts int `yaml:"publish_attempts"`

	// PublishBackoff is the initial retry delay; doubles per attempt.
	PublishBackoff time.Duration `yaml:"publish_backoff"`

	// PublishTimeout bounds each individual publish call.
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// DefaultPubSubConfig returns sensible defaults for PubSubConfig.
func DefaultPubSubConfig() PubSubConfig {
	return PubSubConfig{
		URL:             "nats://localhost:4222",
		Stream:          "CARTS",
		SubjectPrefix:   "carts.events",
		Storage:         "file",
		PublishAttempts: 3,
		PublishBackoff:  2 * time.Second,
		PublishTimeout:  10 * time.Second,
	}
}

// ApplyDefaults fills in missing values with defaults
func (c *PubSubConfig) ApplyDefaults() {
	def := DefaultPubSubConfig()
	if c.URL == "" {
		c.URL = def.URL
	}
	if c.Stream == "" {
		c.Stream = def.Stream
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = def.SubjectPrefix
	}
	if c.Storage == "" {
		c.Storage = def.Storage
	}
	if c.PublishAttempts <= 0 {
		c.PublishAttempts = def.PublishAttempts
	}
	if c.PublishBackoff <= 0 {
		c.PublishBackoff = def.PublishBackoff
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = def.PublishTimeout
	}
}

// Validate validates the PubSubConfig.
func (c *PubSubConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Stream == "" {
		return errors.New("stream is required")
	}
	if c.Storage != "memory" && c.Storage != "file" {
		return fmt.Errorf("storage must be 'memory' or 'file', got %q", c.Storage)
	}
	if c.PublishAttempts <= 0 {
		return errors.New("publish_attempts must be positive")
	}
	return nil
}

// EventsConfig configures the event envelope and local sinks.
type EventsConfig struct {
	// Source is the source tag stamped on every event.
	Source string `yaml:"source"`

	// AuditEnabled toggles the local per-day audit copy of built events.
	AuditEnabled bool `yaml:"audit_enabled"`

	// AuditDir is the audit sink root.
	AuditDir string `yaml:"audit_dir"`

	// DeadLetterDir is the dead-letter sink root.
	DeadLetterDir string `yaml:"dead_letter_dir"`
}

// DefaultEventsConfig returns sensible defaults for EventsConfig.
func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		Source:        "fake-store-api",
		AuditEnabled:  true,
		AuditDir:      "events",
		DeadLetterDir: "dead_letter",
	}
}

// ApplyDefaults fills in missing values with defaults
func (c *EventsConfig) ApplyDefaults() {
	def := DefaultEventsConfig()
	if c.Source == "" {
		c.Source = def.Source
	}
	if c.AuditDir == "" {
		c.AuditDir = def.AuditDir
	}
	if c.DeadLetterDir == "" {
		c.DeadLetterDir = def.DeadLetterDir
	}
}

// Validate validates the EventsConfig.
func (c *EventsConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.DeadLetterDir == "" {
		return errors.New("dead_letter_dir is required")
	}
	return nil
}

// HealthConfig holds health check endpoint configuration.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// DefaultHealthConfig returns sensible defaults for HealthConfig.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Enabled: true,
		Addr:    ":8080",
		Path:    "/health",
	}
}

// ApplyDefaults fills in missing values with defaults
func (c *HealthConfig) ApplyDefaults() {
	def := DefaultHealthConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Path == "" {
		c.Path = def.Path
	}
}

// Validate validates the HealthConfig.
func (c *HealthConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return errors.New("addr is required when enabled")
	}
	return nil
}
