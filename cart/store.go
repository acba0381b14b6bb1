package cart

import (
	"context"
	"sync"
)

// Store defines the interface for persisting cart snapshots under a named
// storage key. Writes are last-writer-wins; there is no locking across
// processes.
type Store interface {
	// Load returns the snapshot stored under key, or (nil, nil) if none exists.
	Load(ctx context.Context, key string) (*Snapshot, error)

	// Save stores the snapshot under key, replacing any previous value.
	Save(ctx context.Context, key string, snap *Snapshot) error

	// Clear removes the snapshot stored under key, if any.
	Clear(ctx context.Context, key string) error
}

// noopStore implements Store with no persistence at all. Used when cart
// storage is disabled.
type noopStore struct{}

// NewNoopStore returns a Store that never persists anything.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Load(context.Context, string) (*Snapshot, error) { return nil, nil }
func (noopStore) Save(context.Context, string, *Snapshot) error   { return nil }
func (noopStore) Clear(context.Context, string) error             { return nil }

// memoryStore implements Store using an in-memory map. It is the
// session-scoped backend: snapshots live as long as the process.
type memoryStore struct {
	mu    sync.Mutex
	state map[string][]byte
}

// NewMemoryStore creates a new in-memory snapshot store.
func NewMemoryStore() Store {
	return &memoryStore{
		state: make(map[string][]byte),
	}
}

// Load implements the Store interface for memory storage.
func (s *memoryStore) Load(_ context.Context, key string) (*Snapshot, error) {
	s.mu.Lock()
	data, exists := s.state[key]
	s.mu.Unlock()

	if !exists {
		return nil, nil
	}
	return DecodeSnapshot(data)
}

// Save implements the Store interface for memory storage. The snapshot is
// stored encoded so later loads never alias the caller's item slice.
func (s *memoryStore) Save(_ context.Context, key string, snap *Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state[key] = data
	s.mu.Unlock()
	return nil
}

// Clear implements the Store interface for memory storage.
func (s *memoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.state, key)
	s.mu.Unlock()
	return nil
}
