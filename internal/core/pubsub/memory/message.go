package memory

import (
	"time"
)

// memoryMessage implements pubsub.Message for in-memory delivery.
type memoryMessage struct {
	data      []byte
	subject   string
	timestamp time.Time
}

// Data returns the raw message payload.
func (m *memoryMessage) Data() []byte {
	return m.data
}

// Subject returns the message subject/topic.
func (m *memoryMessage) Subject() string {
	return m.subject
}

// Timestamp returns the broker receive time.
func (m *memoryMessage) Timestamp() time.Time {
	return m.timestamp
}
