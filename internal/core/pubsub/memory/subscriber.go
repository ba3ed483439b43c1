package memory

import (
	"context"

	"cartstream/internal/core/pubsub"
)

// memorySubscriber implements pubsub.Subscriber using an in-memory broker.
type memorySubscriber struct {
	broker *broker
	opts   pubsub.SubscriberOptions
}

// Subscribe starts consuming messages and returns a channel.
func (s *memorySubscriber) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	if s.broker.isClosed() {
		return nil, ErrEngineClosed
	}

	pattern := s.opts.FilterSubject
	if pattern == "" {
		pattern = ">"
	}

	bufSize := s.opts.ChannelBufSize
	if bufSize <= 0 {
		bufSize = pubsub.DefaultSubscriberOptions().ChannelBufSize
	}

	msgCh, unsubscribe, err := s.broker.subscribe(ctx, pattern, bufSize)
	if err != nil {
		return nil, err
	}

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return msgCh, nil
}
