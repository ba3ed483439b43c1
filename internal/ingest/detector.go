// Package ingest implements the change-detection-and-publish pipeline:
// diffing fetched carts against the persisted snapshot, building
// deterministic events, and delivering them with bounded retry.
package ingest

import (
	"log/slog"
	"strconv"
	"time"

	"cartstream/internal/cart"
	"cartstream/internal/ingest/snapshot"
)

// ChangeSet classifies one poll's fetched carts against the snapshot.
// The four lists are disjoint.
type ChangeSet struct {
	Created   []cart.Cart
	Modified  []cart.Cart
	Deleted   []cart.Cart
	Unchanged []cart.Cart
	ColdStart bool
}

// HasChanges reports whether any events need to be emitted.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Created)+len(cs.Modified)+len(cs.Deleted) > 0
}

// Detector compares fetched carts against the snapshot and mutates the
// snapshot to match the newly observed state. Callers must persist the
// snapshot only after events have been built and published, so a failure
// mid-cycle cannot silently advance it past un-emitted changes.
type Detector struct {
	// now is injectable for tests; it stamps synthesized deletions.
	now func() time.Time
}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{now: time.Now}
}

// Detect classifies fetched carts into created/modified/deleted/unchanged.
//
// On a cold start (snapshot never completed a poll) every fetched cart is
// created — a full backfill — and no deletions are computed. On warm polls
// deletions are computed before upserts, so an id removed and re-added in
// the same fetch would be delete-then-create rather than a silent merge.
//
// Synthesized delete records carry the detection time in their Date field,
// not the true deletion time; the source does not report one.
func (d *Detector) Detect(snap *snapshot.Snapshot, fetched []cart.Cart) ChangeSet {
	if snap.IsColdStart() {
		return d.detectColdStart(snap, fetched)
	}

	var cs ChangeSet

	fetchedIDs := make(map[string]bool, len(fetched))
	for _, c := range fetched {
		if c.ID == 0 {
			continue
		}
		fetchedIDs[strconv.Itoa(c.ID)] = true
	}

	// Deletions first: snapshot ids absent from the fetch.
	for id, entry := range snap.Carts {
		if fetchedIDs[id] {
			continue
		}
		slog.Info("Deleted cart detected", "cart_id", id)

		numID, _ := strconv.Atoi(id)
		cs.Deleted = append(cs.Deleted, cart.Cart{
			ID:       numID,
			UserID:   entry.UserID,
			Date:     d.now().UTC().Format(time.RFC3339Nano),
			Products: entry.Products,
		})
		delete(snap.Carts, id)
	}

	// Upserts: fetched carts are new, changed, or unchanged.
	for _, c := range fetched {
		if c.ID == 0 {
			slog.Warn("Skipping cart without id", "user_id", c.UserID, "date", c.Date)
			continue
		}
		id := strconv.Itoa(c.ID)

		entry, known := snap.Carts[id]
		if !known {
			slog.Info("New cart detected", "cart_id", id)
			cs.Created = append(cs.Created, c)
			snap.Carts[id] = snapshot.Entry{
				Date:     c.Date,
				UserID:   c.UserID,
				Products: c.Products,
			}
			continue
		}

		if entry.Date != c.Date || !cart.ProductsEqual(entry.Products, c.Products) {
			slog.Info("Modified cart detected", "cart_id", id)
			cs.Modified = append(cs.Modified, c)
			snap.Carts[id] = snapshot.Entry{
				Date:     c.Date,
				UserID:   c.UserID,
				Products: c.Products,
			}
		} else {
			cs.Unchanged = append(cs.Unchanged, c)
		}
	}

	slog.Info("Change analysis complete",
		"created", len(cs.Created),
		"modified", len(cs.Modified),
		"deleted", len(cs.Deleted),
		"unchanged", len(cs.Unchanged),
	)

	return cs
}

// detectColdStart initializes the snapshot from the fetch and classifies
// everything as created. There is nothing to compare against, so no
// deletions are possible.
func (d *Detector) detectColdStart(snap *snapshot.Snapshot, fetched []cart.Cart) ChangeSet {
	slog.Info("Cold start detected: treating all fetched carts as created (backfill)")

	cs := ChangeSet{ColdStart: true}
	for _, c := range fetched {
		if c.ID == 0 {
			slog.Warn("Skipping cart without id", "user_id", c.UserID, "date", c.Date)
			continue
		}
		snap.Carts[strconv.Itoa(c.ID)] = snapshot.Entry{
			Date:     c.Date,
			UserID:   c.UserID,
			Products: c.Products,
		}
		cs.Created = append(cs.Created, c)
	}

	slog.Info("Backfill snapshot prepared", "carts", len(cs.Created))
	return cs
}
