// Package kv defines the flat key-value backing store used to persist
// account settings. Implementations are in kv/memory, kv/redis, kv/postgres,
// and kv/mongo subpackages.
//
// The store holds string values under dotted keys ("<uuid>.<field>" and the
// global "accountUuids" list). Writes go through an Editor so that a save or
// delete of a whole account is applied as one batch: implementations apply
// Commit atomically where the backend supports it (a transaction for
// PostgreSQL, a bulk write for MongoDB, a pipeline for Redis).
//
// All operations must be safe for concurrent use.
package kv

import "context"

// Store is a flat string key-value store.
type Store interface {
	// Connect establishes the connection to the backend and prepares any
	// schema it needs. Returns ErrAlreadyConnected if called twice.
	Connect(ctx context.Context) error

	// Close marks the store as disconnected. The caller owns the underlying
	// client/connection and is responsible for closing it.
	Close(ctx context.Context) error

	// Get returns the value for key. The second return value reports whether
	// the key was present; an absent key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Edit returns a new write batch. Batches are independent; puts and
	// removes are not visible to Get until Commit.
	Edit() Editor
}

// Editor is a write batch against a Store. Not safe for concurrent use;
// build a batch on one goroutine and Commit it once.
type Editor interface {
	// Put stages a write of key to value. A later Put or Remove of the same
	// key within the batch wins.
	Put(key, value string)

	// Remove stages a deletion of key. Removing an absent key is a no-op.
	Remove(key string)

	// Commit applies the staged operations. After Commit the editor must not
	// be reused.
	Commit(ctx context.Context) error
}

// Op is a single staged operation in a write batch. Backend implementations
// share this representation via the Batch helper.
type Op struct {
	Key    string
	Value  string
	Delete bool
}

// Batch collects operations in order and deduplicates by key, keeping the
// last operation for each key. It implements the staging half of Editor;
// backends embed it and provide Commit.
type Batch struct {
	ops   []Op
	index map[string]int
}

// Put stages a write.
func (b *Batch) Put(key, value string) {
	b.stage(Op{Key: key, Value: value})
}

// Remove stages a deletion.
func (b *Batch) Remove(key string) {
	b.stage(Op{Key: key, Delete: true})
}

func (b *Batch) stage(op Op) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[op.Key]; ok {
		b.ops[i] = op
		return
	}
	b.index[op.Key] = len(b.ops)
	b.ops = append(b.ops, op)
}

// Ops returns the staged operations in insertion order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of staged operations.
func (b *Batch) Len() int {
	return len(b.ops)
}
