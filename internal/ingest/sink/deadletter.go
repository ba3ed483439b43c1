package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cartstream/internal/ingest/events"
)

// DeadLetter persists events that could not be delivered after retry
// exhaustion, for manual inspection and replay. File names carry a
// timestamp suffix so repeated failures of the same event never clobber
// each other.
type DeadLetter struct {
	dir string

	// now is injectable for tests.
	now func() time.Time
}

var _ events.Sink = (*DeadLetter)(nil)

// NewDeadLetter creates a dead-letter sink rooted at dir.
func NewDeadLetter(dir string) *DeadLetter {
	return &DeadLetter{dir: dir, now: time.Now}
}

// Append implements events.Sink.
func (d *DeadLetter) Append(e events.Event) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dead-letter directory: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ts := d.now().UTC()
	name := fmt.Sprintf("%s_%s_%06d.json", e.EventID, ts.Format("20060102_150405"), ts.Nanosecond()/1000)
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write dead-letter event: %w", err)
	}
	return nil
}
