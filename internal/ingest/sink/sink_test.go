package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartstream/internal/ingest/events"
)

func testEvent(id string) events.Event {
	return events.Event{
		EventID:       id,
		EventType:     events.TypeCreated,
		SchemaVersion: events.SchemaVersion,
		Source:        "fake-store-api",
		Data:          `{"id":1}`,
	}
}

func TestAudit_AppendWritesPerDayFile(t *testing.T) {
	dir := t.TempDir()
	a := NewAudit(dir)

	require.NoError(t, a.Append(testEvent("cart_1_abc")))

	day := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(dir, day, "cart_1_abc.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var e events.Event
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, "cart_1_abc", e.EventID)
}

func TestAudit_AppendTwiceSameID(t *testing.T) {
	dir := t.TempDir()
	a := NewAudit(dir)

	require.NoError(t, a.Append(testEvent("cart_1_abc")))
	require.NoError(t, a.Append(testEvent("cart_1_abc")))

	day := time.Now().UTC().Format("2006-01-02")
	entries, err := os.ReadDir(filepath.Join(dir, day))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeadLetter_AppendDistinctNames(t *testing.T) {
	dir := t.TempDir()
	d := NewDeadLetter(dir)

	ts := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	d.now = func() time.Time {
		ts = ts.Add(time.Millisecond)
		return ts
	}

	require.NoError(t, d.Append(testEvent("cart_2_def")))
	require.NoError(t, d.Append(testEvent("cart_2_def")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Contains(t, e.Name(), "cart_2_def_")
	}
}
