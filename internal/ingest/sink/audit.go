// Package sink provides local durable side channels for events: an audit
// trail of everything built and a dead-letter directory for events that
// exhausted publish retries. Both are append-only and best-effort; the
// pipeline never reads them back.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cartstream/internal/ingest/events"
)

// Audit persists a copy of each built event under a per-day directory,
// keyed by event id. Writing the same id twice overwrites the identical
// content, so replays after a crash lose nothing.
type Audit struct {
	dir string
}

var _ events.Sink = (*Audit)(nil)

// NewAudit creates an audit sink rooted at dir.
func NewAudit(dir string) *Audit {
	return &Audit{dir: dir}
}

// Append implements events.Sink.
func (a *Audit) Append(e events.Event) error {
	day := time.Now().UTC().Format("2006-01-02")
	dayDir := filepath.Join(a.dir, day)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	path := filepath.Join(dayDir, e.EventID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}
