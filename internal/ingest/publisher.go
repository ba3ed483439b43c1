package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cartstream/internal/core/pubsub"
	"cartstream/internal/ingest/events"
)

// PublishStats aggregates per-event outcomes of one batch.
type PublishStats struct {
	Succeeded    int
	Failed       int
	DeadLettered int
}

// EventPublisher delivers events to the broker with bounded retry and
// dead-letter fallback. The subject for each event is its cart id, so
// brokers preserve per-cart ordering; cross-cart ordering is neither
// guaranteed nor required.
type EventPublisher struct {
	pub        pubsub.Publisher
	deadLetter events.Sink

	maxAttempts    int
	initialBackoff time.Duration
	timeout        time.Duration

	// onDeadLetter is called after an event is routed to the dead-letter
	// sink (for health accounting). May be nil.
	onDeadLetter func()
}

// PublisherConfig bounds the retry behavior.
type PublisherConfig struct {
	// MaxAttempts is the total attempt ceiling per event.
	MaxAttempts int

	// InitialBackoff doubles after each failed attempt.
	InitialBackoff time.Duration

	// Timeout bounds each individual publish call.
	Timeout time.Duration
}

// DefaultPublisherConfig returns sensible defaults.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		Timeout:        10 * time.Second,
	}
}

// NewEventPublisher creates an EventPublisher. deadLetter may be nil, in
// which case exhausted events are only counted as failed.
func NewEventPublisher(pub pubsub.Publisher, deadLetter events.Sink, cfg PublisherConfig) *EventPublisher {
	def := DefaultPublisherConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &EventPublisher{
		pub:            pub,
		deadLetter:     deadLetter,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		timeout:        cfg.Timeout,
	}
}

// SetDeadLetterHook registers a callback invoked once per dead-lettered event.
func (p *EventPublisher) SetDeadLetterHook(fn func()) {
	p.onDeadLetter = fn
}

// Publish delivers one event, retrying with exponential backoff up to the
// attempt ceiling. The ceiling is enforced by this loop alone; each
// attempt gets its own bounded timeout.
func (p *EventPublisher) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", e.EventID, err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.pub.Publish(callCtx, e.CartID(), data, pubsub.WithMsgID(e.EventID))
		cancel()

		if err == nil {
			slog.Info("Published event", "event_id", e.EventID, "event_type", e.EventType)
			return nil
		}
		lastErr = err

		if attempt < p.maxAttempts {
			backoff := p.initialBackoff * (1 << (attempt - 1))
			slog.Warn("Publish failed, retrying",
				"event_id", e.EventID, "attempt", attempt, "max_attempts", p.maxAttempts, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("publish cancelled: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("failed to publish %s after %d attempts: %w", e.EventID, p.maxAttempts, lastErr)
}

// PublishAll delivers a batch, iterating events independently: one event's
// retry exhaustion routes it to the dead-letter sink and never blocks or
// cancels the others.
func (p *EventPublisher) PublishAll(ctx context.Context, batch []events.Event) PublishStats {
	var stats PublishStats
	if len(batch) == 0 {
		return stats
	}

	slog.Info("Publishing events", "count", len(batch))

	for _, e := range batch {
		if err := p.Publish(ctx, e); err != nil {
			slog.Error("Failed to publish event", "event_id", e.EventID, "error", err)
			stats.Failed++
			p.routeToDeadLetter(e, &stats)
			continue
		}
		stats.Succeeded++
	}

	return stats
}

// routeToDeadLetter appends the event to the dead-letter sink. Failures
// here are swallowed: the sink is best-effort and must never escalate.
func (p *EventPublisher) routeToDeadLetter(e events.Event, stats *PublishStats) {
	if p.deadLetter == nil {
		return
	}
	if err := p.deadLetter.Append(e); err != nil {
		slog.Error("Failed to write dead-letter event", "event_id", e.EventID, "error", err)
		return
	}
	stats.DeadLettered++
	if p.onDeadLetter != nil {
		p.onDeadLetter()
	}
}
