package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/mailkit/accounts"
	"github.com/mailkit/accounts/kv/memory"
	"github.com/mailkit/accounts/retry"
)

// memFileStore is an in-memory FileStore for tests.
type memFileStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	next    int

	// uploadFailures makes the next n uploads fail, to exercise retries.
	uploadFailures int
}

func newMemFileStore() *memFileStore {
	return &memFileStore{objects: make(map[string][]byte)}
}

func (s *memFileStore) Upload(_ context.Context, filename, _ string, content io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadFailures > 0 {
		s.uploadFailures--
		return "", errors.New("transient upload failure")
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	s.next++
	uri := fmt.Sprintf("mem://%d/%s", s.next, filename)
	s.objects[uri] = data
	return uri, nil
}

func (s *memFileStore) Load(_ context.Context, uri string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[uri]
	if !ok {
		return nil, fmt.Errorf("not found: %s", uri)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memFileStore) Delete(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, uri)
	return nil
}

func newTestManager(t *testing.T) *accounts.Manager {
	t.Helper()
	m, err := accounts.NewManager(accounts.WithStore(memory.New()))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx := context.Background()
	if err := m.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { m.Close(ctx) })
	return m
}

func seedAccount(t *testing.T, m *accounts.Manager, description string) *accounts.Account {
	t.Helper()
	a := m.NewAccount()
	a.SetDescription(description)
	a.SetEmail("user@example.com")
	if err := m.Save(context.Background(), a); err != nil {
		t.Fatalf("save: %v", err)
	}
	return a
}

func fastRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.InitialBackoff = 1
	cfg.MaxBackoff = 1
	return cfg
}

func TestNew(t *testing.T) {
	m := newTestManager(t)

	t.Run("requires manager", func(t *testing.T) {
		if _, err := New(nil, newMemFileStore()); !errors.Is(err, ErrManagerRequired) {
			t.Errorf("expected ErrManagerRequired, got %v", err)
		}
	})

	t.Run("requires file store", func(t *testing.T) {
		if _, err := New(m, nil); !errors.Is(err, ErrFileStoreRequired) {
			t.Errorf("expected ErrFileStoreRequired, got %v", err)
		}
	})
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip through the file store", func(t *testing.T) {
		src := newTestManager(t)
		a := seedAccount(t, src, "Backed up")

		files := newMemFileStore()
		exporter, err := New(src, files)
		if err != nil {
			t.Fatalf("new archiver: %v", err)
		}

		uri, err := exporter.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		dst := newTestManager(t)
		importer, err := New(dst, files)
		if err != nil {
			t.Fatalf("new archiver: %v", err)
		}
		if err := importer.Import(ctx, uri); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		got, err := dst.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load after import failed: %v", err)
		}
		if got.Description() != "Backed up" {
			t.Errorf("description = %q", got.Description())
		}
	})

	t.Run("upload retries transient failures", func(t *testing.T) {
		src := newTestManager(t)
		seedAccount(t, src, "Retry me")

		files := newMemFileStore()
		files.uploadFailures = 2

		archiver, err := New(src, files, WithRetry(fastRetry()))
		if err != nil {
			t.Fatalf("new archiver: %v", err)
		}
		if _, err := archiver.Export(ctx); err != nil {
			t.Fatalf("export should survive two transient failures: %v", err)
		}
	})

	t.Run("writer and reader round trip", func(t *testing.T) {
		src := newTestManager(t)
		a := seedAccount(t, src, "Streamed")

		archiver, err := New(src, newMemFileStore())
		if err != nil {
			t.Fatalf("new archiver: %v", err)
		}

		var buf bytes.Buffer
		if err := archiver.ExportTo(ctx, &buf); err != nil {
			t.Fatalf("export to writer failed: %v", err)
		}

		dst := newTestManager(t)
		importer, err := New(dst, newMemFileStore())
		if err != nil {
			t.Fatalf("new archiver: %v", err)
		}
		if err := importer.ImportFrom(ctx, &buf); err != nil {
			t.Fatalf("import from reader failed: %v", err)
		}
		if _, err := dst.Load(ctx, a.UUID()); err != nil {
			t.Errorf("load after import failed: %v", err)
		}
	})

	t.Run("delete removes the snapshot file", func(t *testing.T) {
		src := newTestManager(t)
		seedAccount(t, src, "Short-lived")

		files := newMemFileStore()
		archiver, _ := New(src, files, WithRetry(fastRetry()))
		uri, err := archiver.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if err := archiver.Delete(ctx, uri); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := archiver.Import(ctx, uri); err == nil {
			t.Error("import of a deleted snapshot should fail")
		}
	})
}

func TestSealing(t *testing.T) {
	ctx := context.Background()

	t.Run("sealed round trip", func(t *testing.T) {
		src := newTestManager(t)
		a := seedAccount(t, src, "Sealed")

		files := newMemFileStore()
		exporter, _ := New(src, files, WithPassphrase("correct horse"))
		uri, err := exporter.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		// The stored file must not contain the settings in the clear.
		files.mu.Lock()
		raw := files.objects[uri]
		files.mu.Unlock()
		if bytes.Contains(raw, []byte("Sealed")) {
			t.Error("sealed snapshot leaks plaintext")
		}
		if !isSealed(raw) {
			t.Error("sealed snapshot missing magic header")
		}

		dst := newTestManager(t)
		importer, _ := New(dst, files, WithPassphrase("correct horse"))
		if err := importer.Import(ctx, uri); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if _, err := dst.Load(ctx, a.UUID()); err != nil {
			t.Errorf("load after sealed import failed: %v", err)
		}
	})

	t.Run("wrong passphrase fails", func(t *testing.T) {
		src := newTestManager(t)
		seedAccount(t, src, "Sealed")

		files := newMemFileStore()
		exporter, _ := New(src, files, WithPassphrase("right"))
		uri, err := exporter.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		dst := newTestManager(t)
		importer, _ := New(dst, files, WithPassphrase("wrong"))
		if err := importer.Import(ctx, uri); !errors.Is(err, ErrUnsealFailed) {
			t.Errorf("expected ErrUnsealFailed, got %v", err)
		}
	})

	t.Run("sealed snapshot without passphrase fails", func(t *testing.T) {
		src := newTestManager(t)
		seedAccount(t, src, "Sealed")

		files := newMemFileStore()
		exporter, _ := New(src, files, WithPassphrase("secret"))
		uri, err := exporter.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		dst := newTestManager(t)
		importer, _ := New(dst, files)
		if err := importer.Import(ctx, uri); !errors.Is(err, ErrPassphraseRequired) {
			t.Errorf("expected ErrPassphraseRequired, got %v", err)
		}
	})
}

func TestSealUnseal(t *testing.T) {
	plaintext := []byte(`{"version":1}`)

	sealed, err := seal("passphrase", plaintext)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if !isSealed(sealed) {
		t.Fatal("sealed data missing magic")
	}
	if isSealed(plaintext) {
		t.Error("plain JSON misdetected as sealed")
	}

	out, err := unseal("passphrase", sealed)
	if err != nil {
		t.Fatalf("unseal failed: %v", err)
	}
	if !bytes.Equal(out, plaintext) {
		t.Errorf("round trip = %q, want %q", out, plaintext)
	}

	t.Run("truncated data fails", func(t *testing.T) {
		if _, err := unseal("passphrase", sealed[:len(sealMagic)+4]); !errors.Is(err, ErrUnsealFailed) {
			t.Errorf("expected ErrUnsealFailed, got %v", err)
		}
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		tampered := bytes.Clone(sealed)
		tampered[len(tampered)-1] ^= 0xFF
		if _, err := unseal("passphrase", tampered); !errors.Is(err, ErrUnsealFailed) {
			t.Errorf("expected ErrUnsealFailed, got %v", err)
		}
	})
}
