package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cartstream/internal/config"
	"cartstream/internal/core/pubsub"
	"cartstream/internal/core/pubsub/memory"
	"cartstream/internal/core/pubsub/nats"
	"cartstream/internal/ingest"
	"cartstream/internal/ingest/events"
	"cartstream/internal/ingest/fetch"
	"cartstream/internal/ingest/health"
	"cartstream/internal/ingest/snapshot"
	"cartstream/internal/ingest/sink"
	"cartstream/internal/logging"
)

func main() {
	// 0. Parse Command Line Flags
	configPath := flag.String("config", "configs/config.yml", "Path to config file")
	local := flag.Bool("local", false, "Use the in-memory broker instead of NATS")
	once := flag.Bool("once", false, "Run a single poll cycle and exit")
	interval := flag.Duration("interval", 0, "Override the poll interval")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Logging.ResolvePaths(filepath.Dir(*configPath))
	if *interval > 0 {
		cfg.Ingest.PollInterval = *interval
	}

	// 2. Initialize Logging
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()

	// 3. Snapshot Store
	store, cleanup, err := newSnapshotStore(initCtx, cfg.Snapshot)
	if err != nil {
		slog.Error("Failed to initialize snapshot store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// 4. Health Checker
	var checker *health.Checker
	if cfg.Health.Enabled {
		// Degrade when three consecutive polls are missed.
		checker = health.NewChecker(3 * cfg.Ingest.PollInterval)
	}

	// 5. Broker Publisher
	pub, closeBroker, err := newPublisher(initCtx, cfg.PubSub, *local, checker)
	if err != nil {
		slog.Error("Failed to initialize publisher", "error", err)
		os.Exit(1)
	}
	defer closeBroker()

	// 6. Pipeline Assembly
	var audit events.Sink
	if cfg.Events.AuditEnabled {
		audit = sink.NewAudit(cfg.Events.AuditDir)
	}
	builder := events.NewBuilder(cfg.Events.Source, audit)

	deadLetter := sink.NewDeadLetter(cfg.Events.DeadLetterDir)
	publisher := ingest.NewEventPublisher(pub, deadLetter, ingest.PublisherConfig{
		MaxAttempts:    cfg.PubSub.PublishAttempts,
		InitialBackoff: cfg.PubSub.PublishBackoff,
		Timeout:        cfg.PubSub.PublishTimeout,
	})
	if checker != nil {
		publisher.SetDeadLetterHook(checker.RecordDeadLetter)
	}

	fetcher := fetch.NewHTTPFetcher(
		cfg.Ingest.SourceURL,
		cfg.Ingest.FetchTimeout,
		cfg.Ingest.FetchRetries,
		cfg.Ingest.FetchBackoff,
	)

	poller := ingest.NewPoller(fetcher, store, builder, publisher, ingest.PollerOptions{
		Interval: cfg.Ingest.PollInterval,
		Checker:  checker,
	})

	// 7. Run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := poller.RunOnce(ctx); err != nil {
			slog.Error("Poll cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Health.Enabled && checker != nil {
		go func() {
			if err := checker.Serve(ctx, cfg.Health.Addr, cfg.Health.Path); err != nil {
				slog.Error("Health endpoint failed", "error", err)
			}
		}()
	}

	if err := poller.Run(ctx); err != nil {
		slog.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

// newSnapshotStore builds the configured snapshot backend. The returned
// cleanup releases backend resources and is safe to call once.
func newSnapshotStore(ctx context.Context, cfg config.SnapshotConfig) (snapshot.Store, func(), error) {
	switch cfg.Backend {
	case "mongodb":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		store := snapshot.NewMongoStore(client.Database(cfg.MongoDatabase), cfg.StoreID)
		cleanup := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return store, cleanup, nil
	default:
		return snapshot.NewFileStore(cfg.Path), func() {}, nil
	}
}

// newPublisher connects to the configured broker and creates the publisher.
func newPublisher(ctx context.Context, cfg config.PubSubConfig, local bool, checker *health.Checker) (pubsub.Publisher, func(), error) {
	opts := pubsub.PublisherOptions{
		StreamName:    cfg.Stream,
		SubjectPrefix: cfg.SubjectPrefix,
		Storage:       parseStorage(cfg.Storage),
	}
	if checker != nil {
		opts.OnPublish = func(subject string, err error, latency time.Duration) {
			checker.RecordPublish(err)
		}
	}

	if local {
		engine := memory.New()
		pub, err := engine.NewPublisher(opts)
		if err != nil {
			engine.Close()
			return nil, nil, err
		}
		slog.Info("Using in-memory broker")
		return pub, func() { engine.Close() }, nil
	}

	provider := nats.NewProvider(cfg.URL)
	if err := provider.Connect(ctx); err != nil {
		return nil, nil, err
	}
	pub, err := provider.NewPublisher(opts)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	return pub, func() { provider.Close() }, nil
}

func parseStorage(s string) pubsub.StorageType {
	if s == "file" {
		return pubsub.FileStorage
	}
	return pubsub.MemoryStorage
}
