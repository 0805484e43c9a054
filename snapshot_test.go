package accounts

import (
	"context"
	"errors"
	"testing"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	a := m.NewAccount()
	a.SetDescription("First")
	mustSave(t, m, a)
	b := m.NewAccount()
	b.SetDescription("Second")
	mustSave(t, m, b)

	t.Run("exports all accounts in registry order", func(t *testing.T) {
		snap, err := m.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if snap.Version != SnapshotVersion {
			t.Errorf("version = %d", snap.Version)
		}
		if len(snap.Accounts) != 2 {
			t.Fatalf("got %d accounts, want 2", len(snap.Accounts))
		}
		if snap.Accounts[0].UUID != a.UUID() || snap.Accounts[1].UUID != b.UUID() {
			t.Errorf("order = %s, %s", snap.Accounts[0].UUID, snap.Accounts[1].UUID)
		}
		if snap.Accounts[0].Settings["description"] != "First" {
			t.Errorf("settings = %v", snap.Accounts[0].Settings["description"])
		}
		if _, ok := snap.Accounts[0].Settings["email.0"]; !ok {
			t.Error("identity keys missing from snapshot")
		}
	})

	t.Run("selection keeps registry order", func(t *testing.T) {
		snap, err := m.Export(ctx, b.UUID(), a.UUID())
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if len(snap.Accounts) != 2 || snap.Accounts[0].UUID != a.UUID() {
			t.Errorf("selection should follow registry order, got %+v", snap.Accounts)
		}
	})

	t.Run("single account selection", func(t *testing.T) {
		snap, err := m.Export(ctx, b.UUID())
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if len(snap.Accounts) != 1 || snap.Accounts[0].UUID != b.UUID() {
			t.Errorf("accounts = %+v", snap.Accounts)
		}
	})

	t.Run("unknown uuid fails", func(t *testing.T) {
		if _, err := m.Export(ctx, "no-such-account"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	exportFrom := func(t *testing.T) (*Snapshot, *Account) {
		t.Helper()
		src, _ := newTestManager(t)
		a := src.NewAccount()
		a.SetDescription("Migrated")
		a.SetEmail("user@example.com")
		mustSave(t, src, a)
		snap, err := src.Export(ctx)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		return snap, a
	}

	t.Run("restores into an empty manager", func(t *testing.T) {
		snap, a := exportFrom(t)
		dst, _ := newTestManager(t)

		if err := dst.Import(ctx, snap); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		got, err := dst.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load after import failed: %v", err)
		}
		if got.Description() != "Migrated" {
			t.Errorf("description = %q", got.Description())
		}
		if got.Email() != "user@example.com" {
			t.Errorf("email = %q", got.Email())
		}
	})

	t.Run("colliding account number is reassigned", func(t *testing.T) {
		snap, a := exportFrom(t)
		dst, _ := newTestManager(t)

		existing := dst.NewAccount()
		mustSave(t, dst, existing) // takes number 0, same as the snapshot

		if err := dst.Import(ctx, snap); err != nil {
			t.Fatalf("import failed: %v", err)
		}

		got, err := dst.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Number() == existing.Number() {
			t.Errorf("imported account shares number %d with an existing account", got.Number())
		}
	})

	t.Run("reimport overwrites in place", func(t *testing.T) {
		snap, a := exportFrom(t)
		dst, _ := newTestManager(t)

		if err := dst.Import(ctx, snap); err != nil {
			t.Fatalf("first import failed: %v", err)
		}
		snap.Accounts[0].Settings["description"] = "Changed"
		if err := dst.Import(ctx, snap); err != nil {
			t.Fatalf("second import failed: %v", err)
		}

		uuids, _ := dst.UUIDs(ctx)
		if len(uuids) != 1 {
			t.Fatalf("registry = %v, want a single entry", uuids)
		}
		got, err := dst.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Description() != "Changed" {
			t.Errorf("description = %q, want Changed", got.Description())
		}
	})

	t.Run("version mismatch fails", func(t *testing.T) {
		dst, _ := newTestManager(t)
		err := dst.Import(ctx, &Snapshot{Version: 99})
		if !errors.Is(err, ErrSnapshotVersion) {
			t.Errorf("expected ErrSnapshotVersion, got %v", err)
		}
	})

	t.Run("nil snapshot fails", func(t *testing.T) {
		dst, _ := newTestManager(t)
		if err := dst.Import(ctx, nil); err == nil {
			t.Error("expected error for nil snapshot")
		}
	})
}
