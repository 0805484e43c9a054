// Package memory provides an in-memory kv.Store implementation for testing.
// Data is not persisted across process restarts.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mailkit/accounts/kv"
)

// Store implements kv.Store with an in-memory map.
// Thread-safe for concurrent use. Not suitable for production.
type Store struct {
	mu        sync.RWMutex
	values    map[string]string
	connected int32
}

// Compile-time check
var _ kv.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Connect marks the store as connected.
func (s *Store) Connect(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return kv.ErrAlreadyConnected
	}
	return nil
}

// Close marks the store as disconnected.
func (s *Store) Close(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

// Get returns the value for key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	if atomic.LoadInt32(&s.connected) == 0 {
		return "", false, kv.ErrNotConnected
	}
	if key == "" {
		return "", false, kv.ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Edit returns a new write batch.
func (s *Store) Edit() kv.Editor {
	return &editor{store: s}
}

// Keys returns a snapshot of all keys currently in the store.
// Intended for tests that assert on orphaned keys.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of keys currently in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

type editor struct {
	kv.Batch
	store *Store
}

// Commit applies the batch under a single lock acquisition.
func (e *editor) Commit(_ context.Context) error {
	if atomic.LoadInt32(&e.store.connected) == 0 {
		return kv.ErrNotConnected
	}
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	for _, op := range e.Ops() {
		if op.Delete {
			delete(e.store.values, op.Key)
		} else {
			e.store.values[op.Key] = op.Value
		}
	}
	return nil
}
