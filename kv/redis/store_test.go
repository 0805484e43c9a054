package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mailkit/accounts/kv"
)

func testStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := New(client, opts...)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	return s, mr
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("requires client", func(t *testing.T) {
		s := New(nil)
		if err := s.Connect(ctx); err == nil {
			t.Error("expected error for nil client")
		}
	})

	t.Run("double connect fails", func(t *testing.T) {
		s, _ := testStore(t)
		if err := s.Connect(ctx); !errors.Is(err, kv.ErrAlreadyConnected) {
			t.Errorf("expected ErrAlreadyConnected, got %v", err)
		}
	})

	t.Run("get before connect fails", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer client.Close()

		s := New(client)
		_, _, err := s.Get(ctx, "key")
		if !errors.Is(err, kv.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestGetAndCommit(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)

	t.Run("absent key is not an error", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || v != "" {
			t.Errorf("expected absent key, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		ed := s.Edit()
		ed.Put("a", "1")
		ed.Put("b", "2")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}

		v, ok, err := s.Get(ctx, "a")
		if err != nil || !ok || v != "1" {
			t.Errorf("expected a=1, got %q (ok=%v, err=%v)", v, ok, err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		ed := s.Edit()
		ed.Put("doomed", "value")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}

		ed = s.Edit()
		ed.Remove("doomed")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("commit failed: %v", err)
		}

		if _, ok, _ := s.Get(ctx, "doomed"); ok {
			t.Error("expected key to be removed")
		}
	})

	t.Run("empty batch commits cleanly", func(t *testing.T) {
		if err := s.Edit().Commit(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestPrefix(t *testing.T) {
	ctx := context.Background()
	s, mr := testStore(t, WithPrefix("accounts:"))

	ed := s.Edit()
	ed.Put("uuid.displayCount", "25")
	if err := ed.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// The raw Redis key carries the prefix; Get strips it transparently.
	if !mr.Exists("accounts:uuid.displayCount") {
		t.Error("expected prefixed key in redis")
	}
	v, ok, _ := s.Get(ctx, "uuid.displayCount")
	if !ok || v != "25" {
		t.Errorf("expected 25, got %q (ok=%v)", v, ok)
	}
}
