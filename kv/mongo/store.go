// Package mongo provides a MongoDB implementation of kv.Store.
//
// Each settings key is one document: {_id: <key>, value: <value>}.
// Batches are committed with a single ordered bulk write.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mailkit/accounts/kv"
)

// Store implements kv.Store using MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	opts       *options
	connected  int32
	logger     *slog.Logger
}

// Compile-time check
var _ kv.Store = (*Store)(nil)

type document struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// New creates a new MongoDB store with the provided client.
// Call Connect() to initialize the collection.
func New(client *mongo.Client, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		client: client,
		opts:   o,
		logger: o.logger,
	}
}

// Connect pings the server and initializes the collection handle.
func (s *Store) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return kv.ErrAlreadyConnected
	}

	if s.client == nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("mongo: client is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("mongo ping: %w", err)
	}

	s.collection = s.client.Database(s.opts.database).Collection(s.opts.collection)
	s.logger.Info("connected to MongoDB", "database", s.opts.database, "collection", s.opts.collection)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the MongoDB client.
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

	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo get: %w", err)
	}
	return doc.Value, true, nil
}

// Edit returns a new write batch.
func (s *Store) Edit() kv.Editor {
	return &editor{store: s}
}

type editor struct {
	kv.Batch
	store *Store
}

// Commit applies the batch with one ordered bulk write.
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

	models := make([]mongo.WriteModel, 0, e.Len())
	for _, op := range e.Ops() {
		if op.Delete {
			models = append(models, mongo.NewDeleteOneModel().
				SetFilter(bson.M{"_id": op.Key}))
		} else {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": op.Key}).
				SetReplacement(document{Key: op.Key, Value: op.Value}).
				SetUpsert(true))
		}
	}

	if _, err := s.collection.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("mongo commit: %w", err)
	}
	return nil
}
