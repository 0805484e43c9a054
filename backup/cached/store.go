// Package cached wraps a snapshot file store with a local file cache, so a
// restore retried against the same URI does not download the snapshot again.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mailkit/accounts/backup"
)

// Store wraps a backup.FileStore with local file caching. Uploads pass
// through; Load fills the cache, Delete evicts.
type Store struct {
	backend  backup.FileStore
	cacheDir string
	maxSize  int64
	ttl      time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	cacheSize int64
}

var _ backup.FileStore = (*Store)(nil)

// New creates a cached store wrapping backend.
func New(backend backup.FileStore, opts ...Option) (*Store, error) {
	o := &options{
		cacheDir: os.TempDir(),
		maxSize:  1 << 28, // 256MB
		ttl:      24 * time.Hour,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	cacheDir := filepath.Join(o.cacheDir, "accounts-backups")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	s := &Store{
		backend:  backend,
		cacheDir: cacheDir,
		maxSize:  o.maxSize,
		ttl:      o.ttl,
		logger:   o.logger,
	}
	s.measure()

	if o.ttl > 0 {
		go s.cleanupLoop()
	}
	return s, nil
}

// Upload passes through to the backend. Caching happens on Load.
func (s *Store) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	return s.backend.Upload(ctx, filename, contentType, content)
}

// Load returns the snapshot content, serving from cache when present and
// fresh.
func (s *Store) Load(ctx context.Context, uri string) (io.ReadCloser, error) {
	cachePath := filepath.Join(s.cacheDir, cacheKey(uri))

	if info, err := os.Stat(cachePath); err == nil {
		if time.Since(info.ModTime()) < s.ttl {
			if f, err := os.Open(cachePath); err == nil {
				s.logger.Debug("cache hit", "uri", uri)
				now := time.Now()
				_ = os.Chtimes(cachePath, now, now)
				return f, nil
			}
		} else {
			os.Remove(cachePath)
			s.adjust(-info.Size())
		}
	}

	s.logger.Debug("cache miss", "uri", uri)
	reader, err := s.backend.Load(ctx, uri)
	if err != nil {
		return nil, err
	}
	return s.fillCache(reader, cachePath)
}

// Delete evicts the cached copy and removes the snapshot from the backend.
func (s *Store) Delete(ctx context.Context, uri string) error {
	cachePath := filepath.Join(s.cacheDir, cacheKey(uri))
	if info, err := os.Stat(cachePath); err == nil {
		os.Remove(cachePath)
		s.adjust(-info.Size())
	}
	return s.backend.Delete(ctx, uri)
}

// ClearCache removes every cached file.
func (s *Store) ClearCache() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			os.Remove(filepath.Join(s.cacheDir, entry.Name()))
		}
	}
	s.cacheSize = 0
	s.logger.Info("cache cleared")
	return nil
}

func cacheKey(uri string) string {
	h := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(h[:])
}

// fillCache tees the backend reader into a temp file that is promoted to
// the cache path on a clean close. A failed temp file falls back to the
// uncached reader.
func (s *Store) fillCache(source io.ReadCloser, cachePath string) (io.ReadCloser, error) {
	tmp, err := os.CreateTemp(s.cacheDir, "tmp-*")
	if err != nil {
		s.logger.Warn("create cache temp file failed", "error", err)
		return source, nil
	}
	return &cachingReader{source: source, tmp: tmp, cachePath: cachePath, store: s}, nil
}

// cachingReader copies everything read from source into a temp file.
type cachingReader struct {
	source    io.ReadCloser
	tmp       *os.File
	cachePath string
	store     *Store
	size      int64
	closed    bool
}

func (r *cachingReader) Read(p []byte) (n int, err error) {
	n, err = r.source.Read(p)
	if n > 0 {
		if _, writeErr := r.tmp.Write(p[:n]); writeErr != nil {
			r.store.logger.Warn("write to cache failed", "error", writeErr)
		}
		r.size += int64(n)
	}
	return n, err
}

func (r *cachingReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	sourceErr := r.source.Close()

	if err := r.tmp.Close(); err != nil {
		os.Remove(r.tmp.Name())
		return sourceErr
	}

	if r.store.hasSpace(r.size) {
		if err := os.Rename(r.tmp.Name(), r.cachePath); err != nil {
			os.Remove(r.tmp.Name())
			r.store.logger.Warn("promote cache temp file failed", "error", err)
		} else {
			r.store.adjust(r.size)
			r.store.logger.Debug("cached snapshot", "path", r.cachePath, "size", r.size)
		}
	} else {
		os.Remove(r.tmp.Name())
		r.store.logger.Debug("cache full, not caching", "size", r.size)
	}

	return sourceErr
}

func (s *Store) hasSpace(size int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheSize+size <= s.maxSize
}

func (s *Store) adjust(delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheSize += delta
	if s.cacheSize < 0 {
		s.cacheSize = 0
	}
}

// measure walks the cache directory to seed the size counter.
func (s *Store) measure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int64
	if err := filepath.Walk(s.cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	}); err != nil {
		s.logger.Warn("measure cache size failed", "error", err)
	}
	s.cacheSize = size
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanupExpired()
	}
}

// cleanupExpired removes cache entries older than the TTL.
func (s *Store) cleanupExpired() {
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		s.logger.Warn("read cache dir for cleanup failed", "error", err)
		return
	}

	now := time.Now()
	var removed int
	var freed int64

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > s.ttl {
			if err := os.Remove(filepath.Join(s.cacheDir, entry.Name())); err == nil {
				removed++
				freed += info.Size()
			}
		}
	}

	if removed > 0 {
		s.adjust(-freed)
		s.logger.Info("cache cleanup completed", "removed", removed, "freed_bytes", freed)
	}
}
