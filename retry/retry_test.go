package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastConfig keeps test backoffs in the microsecond range.
func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Microsecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func(ctx context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Do(ctx, fastConfig(), func(ctx context.Context) error {
			calls++
			return boom
		})
		if !errors.Is(err, ErrMaxRetries) {
			t.Errorf("expected ErrMaxRetries, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected cause to be preserved, got %v", err)
		}
		if calls != 4 {
			t.Errorf("expected 4 calls (1 + 3 retries), got %d", calls)
		}
	})

	t.Run("stops on not retryable error", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Do(ctx, fastConfig(), func(ctx context.Context) error {
			calls++
			return MarkNotRetryable(boom)
		})
		if !errors.Is(err, ErrNotRetryable) {
			t.Errorf("expected ErrNotRetryable, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected cause to be preserved, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("respects custom IsRetryable", func(t *testing.T) {
		cfg := fastConfig()
		boom := errors.New("boom")
		cfg.IsRetryable = func(err error) bool { return !errors.Is(err, boom) }

		calls := 0
		err := Do(ctx, cfg, func(ctx context.Context) error {
			calls++
			return boom
		})
		if !errors.Is(err, ErrNotRetryable) {
			t.Errorf("expected ErrNotRetryable, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := Do(cctx, fastConfig(), func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		})
		if !errors.Is(err, ErrContextCanceled) {
			t.Errorf("expected ErrContextCanceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("already canceled context does not run fn", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := Do(cctx, fastConfig(), func(ctx context.Context) error {
			calls++
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected 0 calls, got %d", calls)
		}
	})
}

func TestDoWithResult(t *testing.T) {
	ctx := context.Background()

	t.Run("returns result on success", func(t *testing.T) {
		calls := 0
		v, err := DoWithResult(ctx, fastConfig(), func(ctx context.Context) (int, error) {
			calls++
			if calls < 2 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	t.Run("reports attempts in error", func(t *testing.T) {
		_, err := DoWithResult(ctx, fastConfig(), func(ctx context.Context) (int, error) {
			return 0, errors.New("boom")
		})
		var rerr *Error
		if !errors.As(err, &rerr) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if rerr.Attempts != 4 {
			t.Errorf("expected 4 attempts, got %d", rerr.Attempts)
		}
	})
}

func TestBackoff(t *testing.T) {
	cfg := Config{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}.withDefaults()
	cfg.Jitter = 0

	if d := cfg.backoff(0); d != 100*time.Millisecond {
		t.Errorf("backoff(0) = %v, want 100ms", d)
	}
	if d := cfg.backoff(1); d != 200*time.Millisecond {
		t.Errorf("backoff(1) = %v, want 200ms", d)
	}
	if d := cfg.backoff(10); d != time.Second {
		t.Errorf("backoff(10) = %v, want capped at 1s", d)
	}
}
