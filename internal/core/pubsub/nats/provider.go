package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"cartstream/internal/core/pubsub"
)

// natsConnection abstracts the nats.Conn for testing purposes
type natsConnection interface {
	Close()
}

// natsConnectFunc is a function type for connecting to NATS (injectable for testing)
type natsConnectFunc func(url string) (natsConnection, error)

// jetStreamFactory is a function type for creating JetStream (injectable for testing)
type jetStreamFactory func(nc *nats.Conn) (JetStream, error)

// defaultNatsConnect is the default implementation that uses nats.Connect
var defaultNatsConnect natsConnectFunc = func(url string) (natsConnection, error) {
	return nats.Connect(url)
}

// Provider implements pubsub.Provider using NATS JetStream.
// It manages the NATS connection lifecycle and provides factory methods
// for creating publishers.
type Provider struct {
	url              string
	nc               natsConnection
	js               JetStream
	natsConnect      natsConnectFunc  // injectable for testing
	jetStreamFactory jetStreamFactory // injectable for testing
}

// Compile-time check that Provider implements pubsub.Provider
var _ pubsub.Provider = (*Provider)(nil)
var _ pubsub.Connectable = (*Provider)(nil)

// NewProvider creates a new NATS-based pubsub provider.
func NewProvider(url string) *Provider {
	return &Provider{
		url:              url,
		natsConnect:      defaultNatsConnect,
		jetStreamFactory: NewJetStream,
	}
}

// Connect establishes the NATS connection and initializes JetStream.
// This must be called before using NewPublisher.
func (p *Provider) Connect(ctx context.Context) error {
	nc, err := p.natsConnect(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", p.url, err)
	}
	p.nc = nc

	natsConn, ok := nc.(*nats.Conn)
	if !ok {
		// Mock connection in tests; the test sets js directly.
		slog.Info("Connected to NATS (mock)", "url", p.url)
		return nil
	}

	js, err := p.jetStreamFactory(natsConn)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream: %w", err)
	}
	p.js = js

	slog.Info("Connected to NATS", "url", p.url)
	return nil
}

// NewPublisher creates a new Publisher backed by NATS JetStream.
func (p *Provider) NewPublisher(opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if p.js == nil {
		return nil, fmt.Errorf("NATS not connected, call Connect first")
	}
	return NewPublisher(p.js, opts)
}

// Close closes the NATS connection.
func (p *Provider) Close() error {
	if p.nc != nil {
		slog.Info("Closing NATS connection...")
		p.nc.Close()
		p.nc = nil
		p.js = nil
	}
	return nil
}
