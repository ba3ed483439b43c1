package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists the snapshot as a single upserted document.
// MongoDB replaces documents atomically, which gives the same no-partial-
// visibility guarantee as the file store's rename.
type MongoStore struct {
	collection *mongo.Collection
	storeID    string
}

var _ Store = (*MongoStore)(nil)

// snapshotDoc is the MongoDB document structure for snapshots.
type snapshotDoc struct {
	ID        string    `bson:"_id"`
	Payload   string    `bson:"payload"` // JSON-encoded Snapshot
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore creates a MongoDB-backed snapshot store. storeID
// distinguishes multiple pipelines sharing one collection.
func NewMongoStore(db *mongo.Database, storeID string) *MongoStore {
	return &MongoStore{
		collection: db.Collection("_cart_snapshots"),
		storeID:    storeID,
	}
}

// Load implements Store.
func (s *MongoStore) Load(ctx context.Context) (*Snapshot, error) {
	var doc snapshotDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": s.storeID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			slog.Warn("No snapshot document found (cold start)", "store_id", s.storeID)
			return New(), nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(doc.Payload), &snap); err != nil {
		slog.Warn("Corrupted snapshot document, starting fresh", "store_id", s.storeID, "error", err)
		return New(), nil
	}
	if snap.Carts == nil {
		snap.Carts = make(map[string]Entry)
	}

	slog.Info("Snapshot loaded", "store_id", s.storeID, "carts", len(snap.Carts))
	return &snap, nil
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	doc := snapshotDoc{
		ID:        s.storeID,
		Payload:   string(payload),
		UpdatedAt: time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": s.storeID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	slog.Info("Snapshot saved", "store_id", s.storeID, "carts", len(snap.Carts))
	return nil
}
