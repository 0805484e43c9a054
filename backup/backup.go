// Package backup moves account-settings snapshots in and out of object
// storage. An Archiver serializes a Snapshot from the account manager to
// JSON, optionally seals it with a passphrase, and uploads it through a
// pluggable FileStore (backup/s3, backup/gcs, or backup/cached wrapping
// either). Uploads and downloads retry on transient failures.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mailkit/accounts"
	"github.com/mailkit/accounts/retry"
)

// FileStore stores snapshot files in object storage. Upload returns a URI
// that Load and Delete accept.
type FileStore interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error)
	Load(ctx context.Context, uri string) (io.ReadCloser, error)
	Delete(ctx context.Context, uri string) error
}

// Archiver exports and imports account-settings snapshots through a
// FileStore. Safe for concurrent use.
type Archiver struct {
	manager    *accounts.Manager
	files      FileStore
	logger     *slog.Logger
	retry      retry.Config
	passphrase string
	filePrefix string
}

// New creates an archiver over the given manager and file store.
func New(manager *accounts.Manager, files FileStore, opts ...Option) (*Archiver, error) {
	if manager == nil {
		return nil, ErrManagerRequired
	}
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	o := newOptions(opts...)
	return &Archiver{
		manager:    manager,
		files:      files,
		logger:     o.logger,
		retry:      o.retry,
		passphrase: o.passphrase,
		filePrefix: o.filePrefix,
	}, nil
}

// Export snapshots the given accounts (or all accounts when none are given)
// and uploads the snapshot file. Returns the URI of the uploaded file.
func (a *Archiver) Export(ctx context.Context, uuids ...string) (string, error) {
	payload, err := a.encode(ctx, uuids)
	if err != nil {
		return "", err
	}

	filename, contentType := a.filename()
	uri, err := retry.DoWithResult(ctx, a.retry, func(ctx context.Context) (string, error) {
		return a.files.Upload(ctx, filename, contentType, bytes.NewReader(payload))
	})
	if err != nil {
		return "", fmt.Errorf("backup: upload snapshot: %w", err)
	}

	a.logger.Info("exported snapshot", "uri", uri, "bytes", len(payload), "sealed", a.passphrase != "")
	return uri, nil
}

// ExportTo snapshots the given accounts and writes the snapshot file to w
// instead of uploading it.
func (a *Archiver) ExportTo(ctx context.Context, w io.Writer, uuids ...string) error {
	payload, err := a.encode(ctx, uuids)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("backup: write snapshot: %w", err)
	}
	return nil
}

// Import downloads the snapshot file at uri and restores its accounts.
func (a *Archiver) Import(ctx context.Context, uri string) error {
	payload, err := retry.DoWithResult(ctx, a.retry, func(ctx context.Context) ([]byte, error) {
		rc, err := a.files.Load(ctx, uri)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	})
	if err != nil {
		return fmt.Errorf("backup: download snapshot: %w", err)
	}

	if err := a.decode(ctx, payload); err != nil {
		return err
	}
	a.logger.Info("imported snapshot", "uri", uri)
	return nil
}

// ImportFrom restores accounts from a snapshot file read from r.
func (a *Archiver) ImportFrom(ctx context.Context, r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("backup: read snapshot: %w", err)
	}
	return a.decode(ctx, payload)
}

// Delete removes an uploaded snapshot file.
func (a *Archiver) Delete(ctx context.Context, uri string) error {
	if err := a.files.Delete(ctx, uri); err != nil {
		return fmt.Errorf("backup: delete snapshot: %w", err)
	}
	return nil
}

func (a *Archiver) encode(ctx context.Context, uuids []string) ([]byte, error) {
	snap, err := a.manager.Export(ctx, uuids...)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("backup: encode snapshot: %w", err)
	}
	if a.passphrase != "" {
		payload, err = seal(a.passphrase, payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (a *Archiver) decode(ctx context.Context, payload []byte) error {
	if isSealed(payload) {
		if a.passphrase == "" {
			return ErrPassphraseRequired
		}
		var err error
		payload, err = unseal(a.passphrase, payload)
		if err != nil {
			return err
		}
	}

	var snap accounts.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("backup: decode snapshot: %w", err)
	}
	return a.manager.Import(ctx, &snap)
}

func (a *Archiver) filename() (name, contentType string) {
	stamp := time.Now().UTC().Format("20060102-150405")
	if a.passphrase != "" {
		return fmt.Sprintf("%s-%s.sealed", a.filePrefix, stamp), "application/octet-stream"
	}
	return fmt.Sprintf("%s-%s.json", a.filePrefix, stamp), "application/json"
}
