package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, "https://fakestoreapi.com/carts", cfg.Ingest.SourceURL)
	assert.Equal(t, 60*time.Second, cfg.Ingest.PollInterval)
	assert.Equal(t, "file", cfg.Snapshot.Backend)
	assert.Equal(t, "CARTS", cfg.PubSub.Stream)
	assert.Equal(t, "carts.events", cfg.PubSub.SubjectPrefix)
	assert.Equal(t, 3, cfg.PubSub.PublishAttempts)
	assert.Equal(t, "fake-store-api", cfg.Events.Source)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
ingest:
  source_url: http://localhost:9999/carts
  poll_interval: 5s
pubsub:
  stream: TEST_CARTS
  publish_attempts: 5
snapshot:
  backend: mongodb
  mongo_uri: mongodb://localhost:27017
  mongo_database: carts
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/carts", cfg.Ingest.SourceURL)
	assert.Equal(t, 5*time.Second, cfg.Ingest.PollInterval)
	assert.Equal(t, "TEST_CARTS", cfg.PubSub.Stream)
	assert.Equal(t, 5, cfg.PubSub.PublishAttempts)
	assert.Equal(t, "mongodb", cfg.Snapshot.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Ingest.FetchRetries)
	assert.Equal(t, "carts.events", cfg.PubSub.SubjectPrefix)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "ingest: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_InvalidSnapshotBackend(t *testing.T) {
	path := writeConfig(t, "snapshot:\n  backend: redis\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend must be 'file' or 'mongodb'")
}

func TestLoad_MongoBackendRequiresURI(t *testing.T) {
	path := writeConfig(t, "snapshot:\n  backend: mongodb\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo_uri is required")
}

func TestSnapshotConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SnapshotConfig
		wantErr bool
	}{
		{"file ok", SnapshotConfig{Backend: "file", Path: "x.json"}, false},
		{"file missing path", SnapshotConfig{Backend: "file"}, true},
		{"mongodb ok", SnapshotConfig{Backend: "mongodb", MongoURI: "mongodb://h", MongoDatabase: "db"}, false},
		{"mongodb missing database", SnapshotConfig{Backend: "mongodb", MongoURI: "mongodb://h"}, true},
		{"unknown backend", SnapshotConfig{Backend: "s3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPubSubConfig_Validate(t *testing.T) {
	cfg := DefaultPubSubConfig()
	require.NoError(t, cfg.Validate())

	cfg.Storage = "disk"
	assert.Error(t, cfg.Validate())

	cfg = DefaultPubSubConfig()
	cfg.Stream = ""
	assert.Error(t, cfg.Validate())
}

func TestLoggingConfig_ApplyDefaults_InheritsSectionLevels(t *testing.T) {
	cfg := LoggingConfig{Level: "warn"}
	cfg.ApplyDefaults()

	assert.Equal(t, "warn", cfg.Console.Level)
	assert.Equal(t, "warn", cfg.File.Level)
	assert.True(t, cfg.Console.Enabled)
	assert.True(t, cfg.File.Enabled)
}

func TestLoggingConfig_Validate(t *testing.T) {
	cfg := DefaultLoggingConfig()
	require.NoError(t, cfg.Validate())

	cfg.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultLoggingConfig()
	cfg.Console.Format = "xml"
	assert.Error(t, cfg.Validate())
}
