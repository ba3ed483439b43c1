// Package snapshot persists the last-known projection of the cart
// collection between polls. The snapshot is the memory change detection
// diffs against; it is owned by the poll loop and replaced atomically on
// every successful cycle.
package snapshot

import (
	"context"
	"time"

	"cartstream/internal/cart"
)

// Entry is the per-cart projection retained across polls: the minimal
// fields needed to detect a future change.
type Entry struct {
	Date     string         `json:"date"`
	UserID   int            `json:"userId"`
	Products []cart.Product `json:"products"`
}

// Metadata describes the snapshot lifecycle.
type Metadata struct {
	CreatedAt  time.Time  `json:"created_at"`
	LastUpdate *time.Time `json:"last_update"`
	PollCount  int        `json:"poll_count"`
	RunID      string     `json:"run_id"`
}

// Snapshot maps cart id to its last-known projection.
type Snapshot struct {
	Carts    map[string]Entry `json:"carts"`
	Metadata Metadata         `json:"metadata"`
}

// New creates a fresh, empty snapshot. The first poll against it is a
// cold start: every fetched cart counts as created.
func New() *Snapshot {
	return &Snapshot{
		Carts: make(map[string]Entry),
		Metadata: Metadata{
			CreatedAt: time.Now(),
		},
	}
}

// IsColdStart reports whether this snapshot has never completed a poll.
func (s *Snapshot) IsColdStart() bool {
	return s.Metadata.LastUpdate == nil
}

// Touch records a completed poll. Called by the poll loop right before
// persisting.
func (s *Snapshot) Touch() {
	now := time.Now()
	s.Metadata.LastUpdate = &now
	s.Metadata.PollCount++
}

// Store is the durable snapshot sink. Load returns a fresh empty snapshot
// on missing or corrupt data (logging the corruption); Save is atomic: no
// reader ever observes a partially written snapshot.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}
