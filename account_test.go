package accounts

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewAccountDefaults(t *testing.T) {
	a := NewAccount()

	if a.UUID() == "" {
		t.Error("expected a generated uuid")
	}
	if a.Number() != -1 {
		t.Errorf("number = %d, want -1 before first save", a.Number())
	}
	if a.DisplayCount() != DefaultVisibleLimit {
		t.Errorf("display count = %d, want %d", a.DisplayCount(), DefaultVisibleLimit)
	}
	if a.InboxFolder() != InboxFolder || a.AutoExpandFolder() != InboxFolder {
		t.Errorf("inbox = %q, autoExpand = %q", a.InboxFolder(), a.AutoExpandFolder())
	}
	if a.AutomaticCheckIntervalMinutes() != -1 {
		t.Errorf("check interval = %d, want -1", a.AutomaticCheckIntervalMinutes())
	}
	if !a.NotifyNewMail() || !a.ShowOngoing() {
		t.Error("new accounts notify by default")
	}
	if a.MessageFormat() != FormatHTML {
		t.Errorf("message format = %v, want HTML", a.MessageFormat())
	}
	if a.QuoteStyle() != QuotePrefix || a.QuotePrefix() != ">" {
		t.Errorf("quote = %v/%q", a.QuoteStyle(), a.QuotePrefix())
	}
	if a.FolderSyncMode() != FolderModeFirstClass {
		t.Errorf("sync mode = %v", a.FolderSyncMode())
	}
	if !a.Enabled() {
		t.Error("new accounts are enabled")
	}
	if got := a.Identities(); len(got) != 1 || !got[0].SignatureUse {
		t.Errorf("identities = %+v, want one with signature use", got)
	}
	if a.MaximumPolledMessageAge() != -1 {
		t.Errorf("polled age = %d, want -1", a.MaximumPolledMessageAge())
	}
	n := a.Notification()
	if !n.RingEnabled || n.VibrateTimes != 5 || !n.LedEnabled {
		t.Errorf("notification defaults = %+v", n)
	}
}

func TestLoadDefaultsDifferFromNew(t *testing.T) {
	// Some settings default differently when read back from storage than on
	// a fresh account; absent keys mean the setting was never written.
	ctx := context.Background()
	m, store := newTestManager(t)

	ed := store.Edit()
	ed.Put(registryKey, "bare-account")
	if err := ed.Commit(ctx); err != nil {
		t.Fatalf("seed registry: %v", err)
	}

	a, err := m.Load(ctx, "bare-account")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if a.NotifyNewMail() {
		t.Error("notifyNewMail should load as false when absent")
	}
	if a.ShowOngoing() {
		t.Error("notifyMailCheck should load as false when absent")
	}
	if a.Number() != 0 {
		t.Errorf("number = %d, want 0 when absent", a.Number())
	}
	if a.ChipColor() != FallbackColor {
		t.Errorf("chip color = %#x, want fallback %#x", a.ChipColor(), FallbackColor)
	}
	if a.Notification().LedColor != FallbackColor {
		t.Errorf("led color = %#x, want chip color", a.Notification().LedColor)
	}
}

func TestMessageFormatAuto(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	a := m.NewAccount()
	a.SetMessageFormat(FormatAuto)
	mustSave(t, m, a)

	t.Run("stored as TEXT plus flag", func(t *testing.T) {
		format, _, _ := store.Get(ctx, a.UUID()+".messageFormat")
		if format != "TEXT" {
			t.Errorf("stored format = %q, want TEXT", format)
		}
		auto, _, _ := store.Get(ctx, a.UUID()+".messageFormatAuto")
		if auto != "true" {
			t.Errorf("stored auto flag = %q, want true", auto)
		}
	})

	t.Run("reconstructed on load", func(t *testing.T) {
		got, err := m.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.MessageFormat() != FormatAuto {
			t.Errorf("loaded format = %v, want AUTO", got.MessageFormat())
		}
	})

	t.Run("plain TEXT stays TEXT", func(t *testing.T) {
		a.SetMessageFormat(FormatText)
		mustSave(t, m, a)

		got, err := m.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.MessageFormat() != FormatText {
			t.Errorf("loaded format = %v, want TEXT", got.MessageFormat())
		}
	})
}

func TestUnknownStoredValueFailsLoad(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	a := m.NewAccount()
	mustSave(t, m, a)

	ed := store.Edit()
	ed.Put(a.UUID()+".folderDisplayMode", "first_class") // wrong case
	if err := ed.Commit(ctx); err != nil {
		t.Fatalf("corrupt store: %v", err)
	}

	_, err := m.Load(ctx, a.UUID())
	if !errors.Is(err, ErrUnknownValue) {
		t.Fatalf("expected ErrUnknownValue, got %v", err)
	}
	var uve *UnknownValueError
	if !errors.As(err, &uve) {
		t.Fatalf("expected *UnknownValueError, got %T", err)
	}
	if uve.Setting != "FolderMode" || uve.Value != "first_class" {
		t.Errorf("error details = %+v", uve)
	}
}

func TestCorruptNumberFailsLoad(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	a := m.NewAccount()
	mustSave(t, m, a)

	ed := store.Edit()
	ed.Put(a.UUID()+".displayCount", "many")
	if err := ed.Commit(ctx); err != nil {
		t.Fatalf("corrupt store: %v", err)
	}

	_, err := m.Load(ctx, a.UUID())
	var cve *CorruptValueError
	if !errors.As(err, &cve) {
		t.Fatalf("expected *CorruptValueError, got %v", err)
	}
}

func TestIdentities(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	t.Run("multiple identities round trip", func(t *testing.T) {
		a := m.NewAccount()
		a.SetIdentities([]Identity{
			{Name: "Primary", Email: "primary@example.com", SignatureUse: true, Description: "Main"},
			{Name: "Alias", Email: "alias@example.com", ReplyTo: "primary@example.com"},
		})
		mustSave(t, m, a)

		got, err := m.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		ids := got.Identities()
		if len(ids) != 2 {
			t.Fatalf("got %d identities, want 2", len(ids))
		}
		if ids[0].Email != "primary@example.com" || ids[1].ReplyTo != "primary@example.com" {
			t.Errorf("identities = %+v", ids)
		}
	})

	t.Run("shrinking identities leaves no stale indexes", func(t *testing.T) {
		a := m.NewAccount()
		a.SetIdentities([]Identity{
			{Email: "one@example.com"},
			{Email: "two@example.com"},
			{Email: "three@example.com"},
		})
		mustSave(t, m, a)

		a.SetIdentities([]Identity{{Email: "only@example.com"}})
		mustSave(t, m, a)

		got, err := m.Load(ctx, a.UUID())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if ids := got.Identities(); len(ids) != 1 || ids[0].Email != "only@example.com" {
			t.Errorf("identities = %+v, want only@example.com alone", ids)
		}
	})

	t.Run("empty identity list is ignored", func(t *testing.T) {
		a := m.NewAccount()
		a.SetEmail("keep@example.com")
		a.SetIdentities(nil)
		if a.Email() != "keep@example.com" {
			t.Error("primary identity should survive an empty SetIdentities")
		}
	})

	t.Run("legacy unindexed identity keys", func(t *testing.T) {
		ed := store.Edit()
		ed.Put(registryKey, "legacy-account")
		ed.Put("legacy-account.name", "Old User")
		ed.Put("legacy-account.email", "old@example.com")
		ed.Put("legacy-account.signature", "regards")
		if err := ed.Commit(ctx); err != nil {
			t.Fatalf("seed legacy keys: %v", err)
		}

		got, err := m.Load(ctx, "legacy-account")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		ids := got.Identities()
		if len(ids) != 1 {
			t.Fatalf("got %d identities, want 1", len(ids))
		}
		id := ids[0]
		if id.Name != "Old User" || id.Email != "old@example.com" || id.Signature != "regards" {
			t.Errorf("identity = %+v", id)
		}
		if !id.SignatureUse {
			t.Error("legacy identity defaults to signature use")
		}
		if id.Description != "old@example.com" {
			t.Errorf("description = %q, want the email address", id.Description)
		}
	})

	t.Run("find identity is case-insensitive", func(t *testing.T) {
		a := NewAccount()
		a.SetIdentities([]Identity{{Email: "User@Example.com"}})

		if _, ok := a.FindIdentity("user@example.COM"); !ok {
			t.Error("expected case-insensitive match")
		}
		if !a.IsAnIdentity("other@example.com", "user@example.com") {
			t.Error("expected IsAnIdentity to match one of the addresses")
		}
		if a.IsAnIdentity("nobody@example.com") {
			t.Error("unexpected match")
		}
	})
}

func TestDisplayName(t *testing.T) {
	a := NewAccount()
	a.SetEmail("user@example.com")

	if a.DisplayName() != "user@example.com" {
		t.Errorf("display name = %q, want the email fallback", a.DisplayName())
	}
	a.SetDescription("Personal")
	if a.DisplayName() != "Personal" {
		t.Errorf("display name = %q, want Personal", a.DisplayName())
	}
	if a.String() != "Personal" {
		t.Errorf("String() = %q", a.String())
	}
}

func TestSetDisplayCount(t *testing.T) {
	a := NewAccount()
	a.SetDisplayCount(100)
	if a.DisplayCount() != 100 {
		t.Errorf("display count = %d", a.DisplayCount())
	}
	a.SetDisplayCount(-1)
	if a.DisplayCount() != DefaultVisibleLimit {
		t.Errorf("display count = %d, want default after -1", a.DisplayCount())
	}
}

func TestSortAscendingDefaults(t *testing.T) {
	a := NewAccount()

	if a.SortAscending(SortDate) {
		t.Error("date sorts descending by default")
	}
	if !a.SortAscending(SortSubject) {
		t.Error("subject sorts ascending by default")
	}
	if !a.SortAscending(SortUnread) {
		t.Error("unread sorts ascending by default")
	}

	a.SetSortAscending(SortSubject, false)
	if a.SortAscending(SortSubject) {
		t.Error("explicit direction overrides the default")
	}
}

func TestSetFolderSyncMode(t *testing.T) {
	a := NewAccount()

	if a.SetFolderSyncMode(FolderModeAll) {
		t.Error("first-class to all is not an enable/disable toggle")
	}
	if !a.SetFolderSyncMode(FolderModeNone) {
		t.Error("disabling sync should report a toggle")
	}
	if a.SetFolderSyncMode(FolderModeNone) {
		t.Error("none to none is not a toggle")
	}
	if !a.SetFolderSyncMode(FolderModeFirstClass) {
		t.Error("re-enabling sync should report a toggle")
	}
}

func TestIsSpecialFolder(t *testing.T) {
	a := NewAccount()
	a.SetTrashFolder("Trash", SelectionManual)
	a.SetSentFolder("Sent", SelectionManual)

	tests := []struct {
		folder string
		want   bool
	}{
		{InboxFolder, true},
		{OutboxFolder, true},
		{"Trash", true},
		{"Sent", true},
		{"Archive", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := a.IsSpecialFolder(tt.folder); got != tt.want {
			t.Errorf("IsSpecialFolder(%q) = %v, want %v", tt.folder, got, tt.want)
		}
	}
}

func TestEarliestPollDate(t *testing.T) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tests := []struct {
		age  int
		want time.Time
		ok   bool
	}{
		{-1, time.Time{}, false},
		{0, midnight, true},
		{7, midnight.AddDate(0, 0, -7), true},
		{27, midnight.AddDate(0, 0, -27), true},
		{28, midnight.AddDate(0, -1, 0), true},
		{56, midnight.AddDate(0, -2, 0), true},
		{84, midnight.AddDate(0, -3, 0), true},
		{168, midnight.AddDate(0, -6, 0), true},
		{365, midnight.AddDate(-1, 0, 0), true},
	}

	a := NewAccount()
	for _, tt := range tests {
		a.SetMaximumPolledMessageAge(tt.age)
		got, ok := a.EarliestPollDate()
		if ok != tt.ok {
			t.Errorf("age %d: ok = %v, want %v", tt.age, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("age %d: date = %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestRemoteSearch(t *testing.T) {
	a := NewAccount()

	a.SetRemoteSearchFullText(true)
	if a.RemoteSearchFullText() {
		t.Error("full-text remote search is disabled regardless of the stored preference")
	}

	a.SetRemoteSearchNumResults(-5)
	if a.RemoteSearchNumResults() != 0 {
		t.Errorf("negative result limit should clamp to 0, got %d", a.RemoteSearchNumResults())
	}
}

func TestUseCompressionDefault(t *testing.T) {
	a := NewAccount()
	for _, network := range NetworkTypes {
		if !a.UseCompression(network) {
			t.Errorf("compression over %s should default to on", network)
		}
	}
	a.SetCompression(NetworkWifi, false)
	if a.UseCompression(NetworkWifi) {
		t.Error("explicit setting should override the default")
	}
}
