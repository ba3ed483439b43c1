package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartstream/internal/core/pubsub"
)

func TestEngine_New(t *testing.T) {
	engine := New()
	require.NotNil(t, engine)
	assert.False(t, engine.IsClosed())
	require.NoError(t, engine.Close())
}

func TestEngine_DoubleClose(t *testing.T) {
	engine := New()
	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close()) // Idempotent
}

func TestEngine_NewPublisherAfterClose(t *testing.T) {
	engine := New()
	require.NoError(t, engine.Close())

	_, err := engine.NewPublisher(pubsub.PublisherOptions{})
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestEngine_NewSubscriberAfterClose(t *testing.T) {
	engine := New()
	require.NoError(t, engine.Close())

	_, err := engine.NewSubscriber(pubsub.SubscriberOptions{})
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestBroker_PublishSubscribe(t *testing.T) {
	engine := New()
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := engine.NewSubscriber(pubsub.SubscriberOptions{
		FilterSubject: "carts.>",
	})
	require.NoError(t, err)

	msgCh, err := sub.Subscribe(ctx)
	require.NoError(t, err)

	pub, err := engine.NewPublisher(pubsub.PublisherOptions{})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, "carts.events.1", []byte("hello")))

	select {
	case msg := <-msgCh:
		assert.Equal(t, "carts.events.1", msg.Subject())
		assert.Equal(t, []byte("hello"), msg.Data())
		assert.False(t, msg.Timestamp().IsZero())
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestBroker_SubjectPrefix(t *testing.T) {
	engine := New()
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := engine.NewSubscriber(pubsub.SubscriberOptions{FilterSubject: "carts.events.*"})
	require.NoError(t, err)
	msgCh, err := sub.Subscribe(ctx)
	require.NoError(t, err)

	pub, err := engine.NewPublisher(pubsub.PublisherOptions{SubjectPrefix: "carts.events"})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, "7", []byte("x")))

	select {
	case msg := <-msgCh:
		assert.Equal(t, "carts.events.7", msg.Subject())
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestBroker_NoMatchingSubscriber(t *testing.T) {
	engine := New()
	defer engine.Close()

	pub, err := engine.NewPublisher(pubsub.PublisherOptions{})
	require.NoError(t, err)

	// Publishing with no subscribers succeeds silently.
	require.NoError(t, pub.Publish(context.Background(), "carts.events.1", []byte("x")))
}

func TestBroker_DuplicatePattern(t *testing.T) {
	engine := New()
	defer engine.Close()

	ctx := context.Background()

	s1, err := engine.NewSubscriber(pubsub.SubscriberOptions{FilterSubject: "carts.>"})
	require.NoError(t, err)
	_, err = s1.Subscribe(ctx)
	require.NoError(t, err)

	s2, err := engine.NewSubscriber(pubsub.SubscriberOptions{FilterSubject: "carts.>"})
	require.NoError(t, err)
	_, err = s2.Subscribe(ctx)
	assert.ErrorIs(t, err, ErrPatternSubscribed)
}

func TestPublisher_OnPublishHook(t *testing.T) {
	engine := New()
	defer engine.Close()

	var gotSubject string
	pub, err := engine.NewPublisher(pubsub.PublisherOptions{
		OnPublish: func(subject string, err error, latency time.Duration) {
			gotSubject = subject
		},
	})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), "carts.events.3", nil))
	assert.Equal(t, "carts.events.3", gotSubject)
}

func TestPublisher_AfterClose(t *testing.T) {
	engine := New()
	defer engine.Close()

	pub, err := engine.NewPublisher(pubsub.PublisherOptions{})
	require.NoError(t, err)
	require.NoError(t, pub.Close())

	err = pub.Publish(context.Background(), "carts.events.1", nil)
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestPublisher_IgnoresMsgID(t *testing.T) {
	engine := New()
	defer engine.Close()

	pub, err := engine.NewPublisher(pubsub.PublisherOptions{})
	require.NoError(t, err)

	// No dedup window in memory; the option is accepted and dropped.
	require.NoError(t, pub.Publish(context.Background(), "carts.events.1", nil, pubsub.WithMsgID("evt-1")))
	require.NoError(t, pub.Publish(context.Background(), "carts.events.1", nil, pubsub.WithMsgID("evt-1")))
}
