package pubsub

import "time"

// StorageType defines the storage backend for streams.
type StorageType int

const (
	// MemoryStorage stores data in memory (default).
	MemoryStorage StorageType = iota
	// FileStorage stores data on disk.
	FileStorage
)

// PublisherOptions configures publisher behavior.
type PublisherOptions struct {
	// StreamName is the name of the stream to publish to.
	StreamName string

	// SubjectPrefix is prepended to all subjects.
	SubjectPrefix string

	// Storage is the storage type for the stream.
	// Defaults to MemoryStorage.
	Storage StorageType

	// OnPublish is called after each publish attempt (for metrics).
	OnPublish func(subject string, err error, latency time.Duration)
}

// PublishConfig holds per-message publish settings.
type PublishConfig struct {
	// MsgID is a broker-level deduplication id. Brokers that support it
	// (NATS JetStream) drop duplicates within their dedup window.
	MsgID string
}

// PublishOption configures a single Publish call.
type PublishOption func(*PublishConfig)

// WithMsgID sets the broker-level deduplication id for a message.
func WithMsgID(id string) PublishOption {
	return func(c *PublishConfig) {
		c.MsgID = id
	}
}

// ApplyPublishOptions folds options into a PublishConfig.
func ApplyPublishOptions(opts []PublishOption) PublishConfig {
	var cfg PublishConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// SubscriberOptions configures subscriber behavior.
type SubscriberOptions struct {
	// FilterSubject filters messages by subject pattern.
	FilterSubject string

	// ChannelBufSize is the buffer size for the message channel.
	ChannelBufSize int
}

// DefaultSubscriberOptions returns SubscriberOptions with sensible defaults.
func DefaultSubscriberOptions() SubscriberOptions {
	return SubscriberOptions{
		ChannelBufSize: 100,
	}
}
