package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/mailkit/accounts/kv"
)

func connectedStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	return s
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("double connect fails", func(t *testing.T) {
		s := connectedStore(t)
		if err := s.Connect(ctx); !errors.Is(err, kv.ErrAlreadyConnected) {
			t.Errorf("expected ErrAlreadyConnected, got %v", err)
		}
	})

	t.Run("get before connect fails", func(t *testing.T) {
		s := New()
		_, _, err := s.Get(ctx, "key")
		if !errors.Is(err, kv.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("commit after close fails", func(t *testing.T) {
		s := connectedStore(t)
		ed := s.Edit()
		ed.Put("key", "value")
		s.Close(ctx)
		if err := ed.Commit(ctx); !errors.Is(err, kv.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestGetPutRemove(t *testing.T) {
	ctx := context.Background()
	s := connectedStore(t)

	t.Run("absent key is not an error", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || v != "" {
			t.Errorf("expected absent key, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, _, err := s.Get(ctx, "")
		if !errors.Is(err, kv.ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey, got %v", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		ed := s.Edit()
		ed.Put("a", "1")
		ed.Put("b", "")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}

		v, ok, _ := s.Get(ctx, "a")
		if !ok || v != "1" {
			t.Errorf("expected a=1, got %q (ok=%v)", v, ok)
		}
		// Empty value is present, not absent.
		v, ok, _ = s.Get(ctx, "b")
		if !ok || v != "" {
			t.Errorf("expected b present and empty, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("remove", func(t *testing.T) {
		ed := s.Edit()
		ed.Remove("a")
		ed.Remove("never-existed")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "a"); ok {
			t.Error("expected a to be removed")
		}
	})
}

func TestBatchSemantics(t *testing.T) {
	ctx := context.Background()
	s := connectedStore(t)

	t.Run("staged writes invisible until commit", func(t *testing.T) {
		ed := s.Edit()
		ed.Put("pending", "1")
		if _, ok, _ := s.Get(ctx, "pending"); ok {
			t.Error("staged put should not be visible before commit")
		}
		ed.Commit(ctx)
		if _, ok, _ := s.Get(ctx, "pending"); !ok {
			t.Error("committed put should be visible")
		}
	})

	t.Run("last operation per key wins", func(t *testing.T) {
		ed := s.Edit()
		ed.Put("k", "first")
		ed.Remove("k")
		ed.Put("k", "last")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		v, ok, _ := s.Get(ctx, "k")
		if !ok || v != "last" {
			t.Errorf("expected k=last, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("remove after put deletes", func(t *testing.T) {
		ed := s.Edit()
		ed.Put("gone", "value")
		ed.Remove("gone")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "gone"); ok {
			t.Error("expected key to be deleted")
		}
	})
}
