package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartstream/internal/cart"
	"cartstream/internal/ingest/snapshot"
)

func warmSnapshot(entries map[string]snapshot.Entry) *snapshot.Snapshot {
	snap := snapshot.New()
	for id, e := range entries {
		snap.Carts[id] = e
	}
	snap.Touch()
	return snap
}

func TestDetect_ColdStartAllCreated(t *testing.T) {
	snap := snapshot.New()
	fetched := []cart.Cart{
		{ID: 1, UserID: 1, Date: "d1", Products: []cart.Product{{ProductID: 9, Quantity: 1}}},
		{ID: 2, UserID: 2, Date: "d2"},
		{ID: 3, UserID: 3, Date: "d3"},
	}

	cs := NewDetector().Detect(snap, fetched)

	assert.True(t, cs.ColdStart)
	assert.Len(t, cs.Created, 3)
	assert.Empty(t, cs.Modified)
	assert.Empty(t, cs.Deleted)
	assert.Empty(t, cs.Unchanged)
	assert.Len(t, snap.Carts, 3)
	assert.Contains(t, snap.Carts, "1")
	assert.Contains(t, snap.Carts, "2")
	assert.Contains(t, snap.Carts, "3")
}

func TestDetect_DeletionDetection(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{
		"1": {Date: "d1", UserID: 1},
		"2": {Date: "d2", UserID: 2},
		"3": {Date: "d3", UserID: 3, Products: []cart.Product{{ProductID: 7, Quantity: 2}}},
	})

	fetched := []cart.Cart{
		{ID: 1, UserID: 1, Date: "d1"},
		{ID: 2, UserID: 2, Date: "d2"},
	}

	cs := NewDetector().Detect(snap, fetched)

	require.Len(t, cs.Deleted, 1)
	deleted := cs.Deleted[0]
	assert.Equal(t, 3, deleted.ID)
	assert.Equal(t, 3, deleted.UserID)
	assert.Equal(t, []cart.Product{{ProductID: 7, Quantity: 2}}, deleted.Products)
	// Date is the detection time, not the stored date.
	assert.NotEqual(t, "d3", deleted.Date)

	assert.Len(t, cs.Unchanged, 2)
	assert.Empty(t, cs.Created)
	assert.Empty(t, cs.Modified)
	assert.NotContains(t, snap.Carts, "3")
}

func TestDetect_DeletionTimestampIsDetectionTime(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{"9": {Date: "d9", UserID: 1}})

	d := NewDetector()
	fixed := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	cs := d.Detect(snap, nil)
	require.Len(t, cs.Deleted, 1)
	assert.Equal(t, fixed.Format(time.RFC3339Nano), cs.Deleted[0].Date)
}

func TestDetect_ModifiedOnDateChange(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{"1": {Date: "d1", UserID: 1}})

	cs := NewDetector().Detect(snap, []cart.Cart{{ID: 1, UserID: 1, Date: "d2"}})

	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "d2", snap.Carts["1"].Date)
}

func TestDetect_ModifiedOnProductChange(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{
		"1": {Date: "d1", UserID: 1, Products: []cart.Product{{ProductID: 1, Quantity: 1}}},
	})

	cs := NewDetector().Detect(snap, []cart.Cart{
		{ID: 1, UserID: 1, Date: "d1", Products: []cart.Product{{ProductID: 1, Quantity: 5}}},
	})

	require.Len(t, cs.Modified, 1)
	assert.Equal(t, []cart.Product{{ProductID: 1, Quantity: 5}}, snap.Carts["1"].Products)
}

func TestDetect_PermutedProductsUnchanged(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{
		"1": {Date: "d1", UserID: 1, Products: []cart.Product{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 2}}},
	})

	cs := NewDetector().Detect(snap, []cart.Cart{
		{ID: 1, UserID: 1, Date: "d1", Products: []cart.Product{{ProductID: 2, Quantity: 2}, {ProductID: 1, Quantity: 1}}},
	})

	assert.Empty(t, cs.Modified)
	require.Len(t, cs.Unchanged, 1)
}

func TestDetect_CreatedOnWarmPoll(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{"1": {Date: "d1"}})

	cs := NewDetector().Detect(snap, []cart.Cart{
		{ID: 1, Date: "d1"},
		{ID: 2, Date: "d2", UserID: 4},
	})

	require.Len(t, cs.Created, 1)
	assert.Equal(t, 2, cs.Created[0].ID)
	assert.False(t, cs.ColdStart)
	assert.Equal(t, snapshot.Entry{Date: "d2", UserID: 4}, snap.Carts["2"])
}

func TestDetect_SkipsCartWithoutID(t *testing.T) {
	snap := warmSnapshot(map[string]snapshot.Entry{"1": {Date: "d1"}})

	cs := NewDetector().Detect(snap, []cart.Cart{
		{ID: 1, Date: "d1"},
		{ID: 0, Date: "dX"}, // invariant violation: no id
	})

	assert.Empty(t, cs.Created)
	require.Len(t, cs.Unchanged, 1)
	assert.NotContains(t, snap.Carts, "0")
}

// Scenario: cold poll ingests one cart, identical re-poll is a no-op.
func TestDetect_ScenarioColdThenIdentical(t *testing.T) {
	snap := snapshot.New()
	fetched := []cart.Cart{{ID: 1, Date: "d1", Products: []cart.Product{{ProductID: 9, Quantity: 1}}}}

	d := NewDetector()

	first := d.Detect(snap, fetched)
	require.Len(t, first.Created, 1)
	assert.Equal(t, snapshot.Entry{Date: "d1", Products: []cart.Product{{ProductID: 9, Quantity: 1}}}, snap.Carts["1"])

	snap.Touch() // poll completed

	second := d.Detect(snap, fetched)
	assert.False(t, second.HasChanges())
	require.Len(t, second.Unchanged, 1)
}
