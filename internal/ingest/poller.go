package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cartstream/internal/cart"
	"cartstream/internal/ingest/events"
	"cartstream/internal/ingest/fetch"
	"cartstream/internal/ingest/health"
	"cartstream/internal/ingest/snapshot"
)

// Poller drives the fetch → detect → build → publish → persist cycle on a
// fixed interval. A single goroutine owns the snapshot for the whole run;
// no other component reads or writes it.
type Poller struct {
	fetcher   fetch.Fetcher
	store     snapshot.Store
	detector  *Detector
	builder   *events.Builder
	publisher *EventPublisher

	interval time.Duration
	checker  *health.Checker
	runID    string
}

// PollerOptions configures the loop.
type PollerOptions struct {
	// Interval is the inter-poll sleep.
	Interval time.Duration

	// Checker receives cycle outcomes. May be nil.
	Checker *health.Checker
}

// NewPoller creates a Poller. The run id identifies this process
// lifetime in every event it emits.
func NewPoller(fetcher fetch.Fetcher, store snapshot.Store, builder *events.Builder, publisher *EventPublisher, opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	return &Poller{
		fetcher:   fetcher,
		store:     store,
		detector:  NewDetector(),
		builder:   builder,
		publisher: publisher,
		interval:  interval,
		checker:   opts.Checker,
		runID:     uuid.NewString()[:8],
	}
}

// RunID returns the run identifier stamped on emitted events.
func (p *Poller) RunID() string {
	return p.runID
}

// Run polls until ctx is cancelled. Cancellation is cooperative: it is
// observed at loop-top and during the sleep, never mid-cycle — a cycle in
// flight always completes its fetch/detect/emit/persist sequence.
func (p *Poller) Run(ctx context.Context) error {
	snap, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.Metadata.RunID = p.runID

	slog.Info("Ingestion started", "run_id", p.runID, "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Ingestion stopped", "run_id", p.runID)
			return nil
		default:
		}

		// The cycle runs on a detached context so cancellation cannot
		// preempt an in-flight fetch or publish.
		p.runCycle(context.WithoutCancel(ctx), snap)

		select {
		case <-time.After(p.interval):
		case <-ctx.Done():
			slog.Info("Ingestion stopped", "run_id", p.runID)
			return nil
		}
	}
}

// RunOnce executes a single poll cycle and returns. Used by the one-shot
// mode for manual backfills.
func (p *Poller) RunOnce(ctx context.Context) error {
	snap, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.Metadata.RunID = p.runID

	p.runCycle(ctx, snap)
	return nil
}

// runCycle executes one fetch → detect → build → publish → persist pass.
// Every failure mode degrades: a fetch error skips the cycle, publish
// exhaustion dead-letters the event, a save error is logged and the next
// cycle re-detects (and re-emits identical, deduplicatable events).
func (p *Poller) runCycle(ctx context.Context, snap *snapshot.Snapshot) {
	extractedAt := time.Now().UTC().Format(time.RFC3339Nano)

	carts, err := p.fetcher.FetchAll(ctx)
	if err != nil {
		slog.Error("Fetch failed, skipping this cycle", "error", err)
		return
	}

	changes := p.detector.Detect(snap, carts)

	var batch []events.Event
	batch = p.appendEvents(batch, changes.Created, events.TypeCreated, extractedAt)
	batch = p.appendEvents(batch, changes.Modified, events.TypeModified, extractedAt)
	batch = p.appendEvents(batch, changes.Deleted, events.TypeDeleted, extractedAt)

	var stats PublishStats
	if len(batch) > 0 {
		if changes.ColdStart {
			slog.Info("Backfill: publishing initial snapshot events", "count", len(batch))
		}
		stats = p.publisher.PublishAll(ctx, batch)
	} else {
		slog.Info("No changes detected")
	}

	// The snapshot is saved after publish attempts by design: a crash in
	// between re-emits the same changes next poll with identical event
	// ids, which downstream dedup absorbs (at-least-once).
	snap.Touch()
	if err := p.store.Save(ctx, snap); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}

	if p.checker != nil {
		p.checker.RecordPoll()
	}

	slog.Info("Poll cycle complete",
		"run_id", p.runID,
		"poll_count", snap.Metadata.PollCount,
		"created", len(changes.Created),
		"modified", len(changes.Modified),
		"deleted", len(changes.Deleted),
		"unchanged", len(changes.Unchanged),
		"published", stats.Succeeded,
		"failed", stats.Failed,
		"dead_lettered", stats.DeadLettered,
	)
}

func (p *Poller) appendEvents(batch []events.Event, carts []cart.Cart, typ events.Type, extractedAt string) []events.Event {
	for _, c := range carts {
		batch = append(batch, p.builder.Build(c, typ, extractedAt, p.runID))
	}
	return batch
}
