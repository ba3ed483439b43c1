// Package pubsub provides a generic pub/sub abstraction for message-based communication.
package pubsub

import (
	"context"
	"time"
)

// Publisher publishes messages to a stream.
type Publisher interface {
	// Publish sends a message to the specified subject and waits for the
	// broker acknowledgment. Per-message options carry broker hints such
	// as the dedup message id.
	Publish(ctx context.Context, subject string, data []byte, opts ...PublishOption) error

	// Close releases resources.
	Close() error
}

// Message represents a message observed by a subscriber.
type Message interface {
	// Data returns the raw message payload.
	Data() []byte

	// Subject returns the message subject/topic.
	Subject() string

	// Timestamp returns the broker receive time.
	Timestamp() time.Time
}

// Subscriber consumes messages from a stream. The ingestion pipeline only
// publishes; subscribers exist so tests and disconnected operation can
// observe what was published through the in-memory engine.
type Subscriber interface {
	// Subscribe starts consuming messages and returns a channel.
	// The channel is closed when the context is cancelled.
	Subscribe(ctx context.Context) (<-chan Message, error)
}
