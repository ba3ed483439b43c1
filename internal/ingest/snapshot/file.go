package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore persists the snapshot as a single JSON file.
// Saves are atomic: the snapshot is written to a temp file in the same
// directory and renamed over the previous one, so a crash mid-write leaves
// the prior snapshot intact.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed snapshot store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot file. A missing file is a cold start; a corrupt
// file is discarded with a warning and replaced by a fresh snapshot.
func (s *FileStore) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No snapshot file found (cold start)", "path", s.path)
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("Corrupted snapshot file, starting fresh", "path", s.path, "error", err)
		return New(), nil
	}
	if snap.Carts == nil {
		snap.Carts = make(map[string]Entry)
	}

	slog.Info("Snapshot loaded", "path", s.path, "carts", len(snap.Carts))
	return &snap, nil
}

// Save writes the snapshot atomically via temp-file-and-rename.
func (s *FileStore) Save(_ context.Context, snap *Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	slog.Info("Snapshot saved", "path", s.path, "carts", len(snap.Carts))
	return nil
}
