// Package redis provides a Redis implementation of kv.Store.
//
// Each settings key is stored as a plain Redis string key under a
// configurable prefix. Batches are committed through a transactional
// pipeline (MULTI/EXEC) so a whole account save or delete is applied
// as one round trip.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mailkit/accounts/kv"
)

// Store implements kv.Store using Redis.
type Store struct {
	client    goredis.UniversalClient
	opts      *options
	connected int32
	logger    *slog.Logger
}

// Compile-time check
var _ kv.Store = (*Store)(nil)

// New creates a new Redis store with the provided client.
// Compatible with *redis.Client, *redis.ClusterClient, and redis.UniversalClient.
// Call Connect() to verify the connection.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		client: client,
		opts:   o,
		logger: o.logger,
	}
}

// Connect pings the server and marks the store as connected.
func (s *Store) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return kv.ErrAlreadyConnected
	}

	if s.client == nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("redis: client is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("redis ping: %w", err)
	}

	s.logger.Info("connected to Redis", "prefix", s.opts.prefix)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the Redis client.
func (s *Store) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

// Get returns the value for key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if atomic.LoadInt32(&s.connected) == 0 {
		return "", false, kv.ErrNotConnected
	}
	if key == "" {
		return "", false, kv.ErrInvalidKey
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	v, err := s.client.Get(ctx, s.opts.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

// Edit returns a new write batch.
func (s *Store) Edit() kv.Editor {
	return &editor{store: s}
}

type editor struct {
	kv.Batch
	store *Store
}

// Commit applies the batch in one transactional pipeline.
func (e *editor) Commit(ctx context.Context) error {
	s := e.store
	if atomic.LoadInt32(&s.connected) == 0 {
		return kv.ErrNotConnected
	}
	if e.Len() == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	for _, op := range e.Ops() {
		if op.Delete {
			pipe.Del(ctx, s.opts.prefix+op.Key)
		} else {
			pipe.Set(ctx, s.opts.prefix+op.Key, op.Value, 0)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis commit: %w", err)
	}
	return nil
}
