// Package events defines the canonical event envelope published for cart
// changes. All consumers MUST use these types for event processing.
package events

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cartstream/internal/cart"
)

// SchemaVersion is the envelope schema version stamped on every event.
const SchemaVersion = "1.0"

// Type represents the kind of change an event carries.
type Type string

const (
	TypeCreated  Type = "cart_created"
	TypeModified Type = "cart_modified"
	TypeDeleted  Type = "cart_deleted"
)

// IsValid checks if the event type is a known valid type.
func (t Type) IsValid() bool {
	switch t {
	case TypeCreated, TypeModified, TypeDeleted:
		return true
	default:
		return false
	}
}

// Event is the immutable envelope published to the broker. The outer
// fields are typed; Data is an opaque serialized payload mirroring the
// cart as observed, kept as a blob for forward compatibility with the
// downstream sink.
type Event struct {
	EventID       string `json:"event_id"`
	EventType     Type   `json:"event_type"`
	SchemaVersion string `json:"event_schema_version"`
	Source        string `json:"source"`
	ExtractedAt   string `json:"extracted_at"`
	PublishedAt   string `json:"published_at"`
	RunID         string `json:"run_id"`
	Data          string `json:"data"`

	// cartID is carried alongside for ordering-key derivation; it is not
	// part of the wire envelope (consumers read it from Data).
	cartID string
}

// payload is the serialized cart inside Data.
type payload struct {
	ID       int            `json:"id"`
	UserID   int            `json:"userId"`
	Date     string         `json:"date"`
	Products []cart.Product `json:"products"`
	Revision int            `json:"__v"`
}

// CartID returns the id of the cart this event describes. Events rebuilt
// from their wire form recover it from the payload; if that fails the
// event id stands in, which still yields a stable ordering key.
func (e *Event) CartID() string {
	if e.cartID != "" {
		return e.cartID
	}
	var p payload
	if err := json.Unmarshal([]byte(e.Data), &p); err == nil && p.ID != 0 {
		e.cartID = strconv.Itoa(p.ID)
		return e.cartID
	}
	return e.EventID
}

// ID derives the deterministic event id for a cart: a fixed prefix, the
// cart id, and the first 12 hex characters of a content hash over
// (id, date, canonical product signature). Identical observed content
// always yields the identical id — the idempotency contract downstream
// deduplication relies on. MD5 is a content fingerprint here, not a
// security boundary.
func ID(c cart.Cart) string {
	sig := cart.Signature(c.Products)
	hashInput := fmt.Sprintf("%d_%s_%s", c.ID, c.Date, sig)
	sum := md5.Sum([]byte(hashInput))
	return fmt.Sprintf("cart_%d_%s", c.ID, hex.EncodeToString(sum[:])[:12])
}

// Sink receives a copy of every built event, best-effort.
type Sink interface {
	Append(e Event) error
}

// Builder converts classified carts into event envelopes. If an audit
// sink is configured, every built event is also appended there; audit
// failures are swallowed (best-effort contract).
type Builder struct {
	source string
	audit  Sink
}

// NewBuilder creates a Builder stamping events with the given source tag.
// audit may be nil.
func NewBuilder(source string, audit Sink) *Builder {
	return &Builder{source: source, audit: audit}
}

// Build creates the event for a cart and change type. Safe to call twice
// with the same observed content: the result carries the same event id.
func (b *Builder) Build(c cart.Cart, eventType Type, extractedAt, runID string) Event {
	data, _ := json.Marshal(payload{
		ID:       c.ID,
		UserID:   c.UserID,
		Date:     c.Date,
		Products: c.Products,
		Revision: c.Revision,
	})

	e := Event{
		EventID:       ID(c),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Source:        b.source,
		ExtractedAt:   extractedAt,
		PublishedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		RunID:         runID,
		Data:          string(data),
		cartID:        strconv.Itoa(c.ID),
	}

	if b.audit != nil {
		// Keyed by event id, so a rebuilt duplicate overwrites its twin.
		_ = b.audit.Append(e)
	}

	return e
}
