package snapshot

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return New(), nil
	}

	var snap Snapshot
	if err := json.Unmarshal(s.data, &snap); err != nil {
		return New(), nil
	}
	if snap.Carts == nil {
		snap.Carts = make(map[string]Entry)
	}
	return &snap, nil
}

// Save implements Store. Round-tripping through JSON keeps the same
// serialization semantics as the durable stores.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}
