package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mailkit/accounts/kv"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when a snapshot was written by an
// incompatible format version.
var ErrSnapshotVersion = errors.New("accounts: unsupported snapshot version")

// Snapshot is a point-in-time image of account settings, captured as the raw
// key/value pairs the store holds. Values are copied verbatim, so a snapshot
// survives settings this build does not know about and imports reproduce the
// store byte for byte. Account order follows the registry at export time.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Accounts   []AccountSnapshot `json:"accounts"`
}

// AccountSnapshot holds one account's stored settings, keyed by field name
// without the UUID prefix. Identity fields keep their index suffix
// ("email.0", "email.1", ...).
type AccountSnapshot struct {
	UUID     string            `json:"uuid"`
	Settings map[string]string `json:"settings"`
}

// Export captures a snapshot of the given accounts, or of every registered
// account when no UUIDs are given. Returns ErrNotFound if a requested UUID is
// not registered. Accounts appear in registry order regardless of the order
// they were requested in.
func (m *Manager) Export(ctx context.Context, uuids ...string) (*Snapshot, error) {
	if err := m.checkConnected(); err != nil {
		return nil, err
	}

	registry, err := m.readRegistry(ctx)
	if err != nil {
		return nil, err
	}

	selected := registry
	if len(uuids) > 0 {
		want := make(map[string]bool, len(uuids))
		for _, uuid := range uuids {
			if !registered(registry, uuid) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, uuid)
			}
			want[uuid] = true
		}
		selected = make([]string, 0, len(want))
		for _, uuid := range registry {
			if want[uuid] {
				selected = append(selected, uuid)
			}
		}
	}

	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Accounts:   make([]AccountSnapshot, 0, len(selected)),
	}
	for _, uuid := range selected {
		settings, err := dumpAccount(ctx, m.store, uuid)
		if err != nil {
			return nil, err
		}
		snap.Accounts = append(snap.Accounts, AccountSnapshot{UUID: uuid, Settings: settings})
	}

	m.logger.Debug("exported snapshot", "accounts", len(snap.Accounts))
	return snap, nil
}

// dumpAccount reads every present key of the account into a map of field
// name to raw stored value.
func dumpAccount(ctx context.Context, store kv.Store, uuid string) (map[string]string, error) {
	settings := make(map[string]string)

	get := func(field string) error {
		v, ok, err := store.Get(ctx, accountKey(uuid, field))
		if err != nil {
			return fmt.Errorf("accounts: export %s: %w", uuid, err)
		}
		if ok {
			settings[field] = v
		}
		return nil
	}

	for _, field := range accountFields {
		if err := get(field); err != nil {
			return nil, err
		}
	}
	for _, network := range NetworkTypes {
		if err := get("useCompression." + string(network)); err != nil {
			return nil, err
		}
	}

	// Identities use the same indexed scan as load: the email key marks the
	// end of the list.
	for index := 0; ; index++ {
		_, ok, err := store.Get(ctx, identityKey(uuid, "email", index))
		if err != nil {
			return nil, fmt.Errorf("accounts: export %s: %w", uuid, err)
		}
		if !ok {
			break
		}
		suffix := "." + strconv.Itoa(index)
		for _, field := range []string{"name", "email", "signatureUse", "signature", "description", "replyTo"} {
			if err := get(field + suffix); err != nil {
				return nil, err
			}
		}
	}

	return settings, nil
}

// Import restores the accounts in the snapshot. Accounts already registered
// are overwritten in place and keep their position; new accounts are appended
// to the registry in snapshot order and assigned a free account number when
// their stored number collides with an existing account. The whole import is
// committed as one batch.
func (m *Manager) Import(ctx context.Context, snap *Snapshot) error {
	if err := m.checkConnected(); err != nil {
		return err
	}
	if snap == nil {
		return errors.New("accounts: nil snapshot")
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}

	m.registryMu.Lock()
	defer m.registryMu.Unlock()

	registry, err := m.readRegistry(ctx)
	if err != nil {
		return err
	}

	incoming := make(map[string]bool, len(snap.Accounts))
	for _, as := range snap.Accounts {
		if as.UUID == "" {
			return ErrInvalidUUID
		}
		incoming[as.UUID] = true
	}

	// Numbers already taken by accounts that are not being overwritten.
	taken := make([]int, 0, len(registry))
	for _, uuid := range registry {
		if incoming[uuid] {
			continue
		}
		r := &reader{ctx: ctx, store: m.store, uuid: uuid}
		n := r.getInt("accountNumber", 0)
		if r.err != nil {
			return r.err
		}
		taken = append(taken, n)
	}
	numberTaken := func(n int) bool {
		for _, t := range taken {
			if t == n {
				return true
			}
		}
		return false
	}

	ed := m.store.Edit()
	newUUIDs := make([]string, 0, len(snap.Accounts))
	newNumbers := make(map[string]int, len(snap.Accounts))

	for _, as := range snap.Accounts {
		// Clearing first keeps stale keys (extra identities, keys this
		// snapshot lacks) from surviving the overwrite. Puts staged after a
		// Remove of the same key win.
		if err := stageDeleteAccount(ctx, m.store, ed, as.UUID); err != nil {
			return err
		}

		number := 0
		if v, ok := as.Settings["accountNumber"]; ok {
			number, err = strconv.Atoi(v)
			if err != nil {
				return &CorruptValueError{Key: accountKey(as.UUID, "accountNumber"), Value: v, Err: err}
			}
		}
		if numberTaken(number) {
			number = nextAccountNumber(taken)
		}
		taken = append(taken, number)
		newNumbers[as.UUID] = number

		for field, value := range as.Settings {
			ed.Put(accountKey(as.UUID, field), value)
		}
		ed.Put(accountKey(as.UUID, "accountNumber"), strconv.Itoa(number))

		if !registered(registry, as.UUID) {
			newUUIDs = append(newUUIDs, as.UUID)
		}
	}

	if len(newUUIDs) > 0 {
		writeRegistry(ed, append(registry, newUUIDs...))
	}

	if err := ed.Commit(ctx); err != nil {
		return fmt.Errorf("accounts: import snapshot: %w", err)
	}

	m.logger.Info("imported snapshot",
		"accounts", len(snap.Accounts), "created", len(newUUIDs))

	for _, uuid := range newUUIDs {
		if err := m.events.AccountCreated.Publish(ctx, AccountCreatedEvent{
			UUID:      uuid,
			Number:    newNumbers[uuid],
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			if m.opts.eventErrorsFatal {
				return &EventPublishError{Event: "AccountCreated", UUID: uuid, Err: err}
			}
			m.opts.safeEventPublishFailure("AccountCreated", err)
		}
	}
	return nil
}
