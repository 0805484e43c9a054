package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/mailkit/accounts/kv"
)

// Connection states for the manager.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// Manager owns the account registry: the ordered list of account UUIDs, the
// per-account settings in the backing store, account number allocation, and
// the lifecycle events published when accounts come and go.
//
// Construct with NewManager, then Connect before use. All methods are safe
// for concurrent use; operations that rewrite the registry are serialized
// internally.
type Manager struct {
	store  kv.Store
	logger *slog.Logger
	trust  TrustStore
	opts   *options
	state  int32
	otel   *otelInstrumentation

	// registryMu serializes read-modify-write cycles on the ordered UUID
	// list (save of a new account, delete, move).
	registryMu sync.Mutex

	loadSem  *semaphore.Weighted
	eventBus *event.Bus
	events   *ManagerEvents
}

// NewManager creates a new account manager.
// Call Connect() to establish the connection to the backing store.
func NewManager(opts ...Option) (*Manager, error) {
	o := newOptions(opts...)

	if o.store == nil {
		return nil, ErrStoreRequired
	}

	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	return &Manager{
		store:   o.store,
		logger:  o.logger,
		trust:   o.trust,
		opts:    o,
		otel:    otelInstr,
		loadSem: semaphore.NewWeighted(int64(o.maxConcurrentLoads)),
	}, nil
}

// Events returns per-manager event instances for subscribing and
// publishing. Only valid after Connect.
func (m *Manager) Events() *ManagerEvents {
	return m.events
}

// IsConnected returns true if the manager is connected and ready.
func (m *Manager) IsConnected() bool {
	return atomic.LoadInt32(&m.state) == stateConnected
}

// Connect establishes the connection to the backing store and wires up the
// event bus.
func (m *Manager) Connect(ctx context.Context) error {
	// Three states keep callers from observing partial initialization:
	// stateDisconnected -> stateConnecting -> stateConnected.
	if !atomic.CompareAndSwapInt32(&m.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&m.state, stateConnected)
		} else {
			atomic.StoreInt32(&m.state, stateDisconnected)
		}
	}()

	if err := m.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	if err := m.initEventBus(ctx); err != nil {
		m.store.Close(ctx)
		return fmt.Errorf("init event bus: %w", err)
	}

	success = true
	m.logger.Info("account manager connected")
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

// initEventBus initializes the event bus for this manager. Each manager
// creates its own bus with its own event instances.
func (m *Manager) initEventBus(ctx context.Context) error {
	serviceName := m.opts.serviceName
	if serviceName == "" {
		serviceName = "accounts"
	}
	// Each bus needs a unique name, so append a counter suffix
	busName := fmt.Sprintf("%s-%d", serviceName, atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case m.opts.eventTransport != nil:
		m.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(m.opts.eventTransport))
	case m.opts.redisClient != nil:
		m.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(m.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		m.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	m.eventBus = bus

	m.events = newManagerEvents(busName)
	if err := registerManagerEvents(ctx, bus, m.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register manager events: %w", err)
	}

	return nil
}

// Close closes the event bus and the backing store.
func (m *Manager) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&m.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// Close event bus only if using a real transport. The noop bus holds
	// no resources.
	if m.eventBus != nil && (m.opts.eventTransport != nil || m.opts.redisClient != nil) {
		if err := m.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	if err := m.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	return errors.Join(errs...)
}

func (m *Manager) checkConnected() error {
	if atomic.LoadInt32(&m.state) != stateConnected {
		return ErrNotConnected
	}
	return nil
}

// NewAccount returns a fresh account seeded with the manager's configured
// defaults. The account is not persisted until Save.
func (m *Manager) NewAccount() *Account {
	return NewAccount(
		WithStorageProviderID(m.opts.defaultStorageProviderID),
		WithSignature(m.opts.defaultSignature),
		WithIdentityDescription(m.opts.defaultIdentityDescription),
	)
}

// UUIDs returns the ordered list of registered account UUIDs.
func (m *Manager) UUIDs(ctx context.Context) ([]string, error) {
	if err := m.checkConnected(); err != nil {
		return nil, err
	}
	return m.readRegistry(ctx)
}

// readRegistry reads the ordered UUID list from the store. The list is
// persisted as a single comma-delimited string.
func (m *Manager) readRegistry(ctx context.Context) ([]string, error) {
	raw, ok, err := m.store.Get(ctx, registryKey)
	if err != nil {
		return nil, fmt.Errorf("accounts: read registry: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	return strings.Split(raw, ","), nil
}

func writeRegistry(ed kv.Editor, uuids []string) {
	ed.Put(registryKey, strings.Join(uuids, ","))
}

func registered(uuids []string, uuid string) bool {
	for _, u := range uuids {
		if u == uuid {
			return true
		}
	}
	return false
}

// Load reconstitutes the account with the given UUID from the store.
// Returns ErrNotFound if the UUID is not registered. Stored values that do
// not decode (unknown enum literal, unparseable number) fail the load.
func (m *Manager) Load(ctx context.Context, uuid string) (a *Account, err error) {
	if err := m.checkConnected(); err != nil {
		return nil, err
	}
	if uuid == "" {
		return nil, ErrInvalidUUID
	}

	ctx, end := m.otel.startSpan(ctx, "accounts.Load", attribute.String("account.uuid", uuid))
	start := time.Now()
	defer func() {
		end(err)
		m.otel.recordLoad(ctx, time.Since(start), err)
	}()

	uuids, err := m.readRegistry(ctx)
	if err != nil {
		return nil, err
	}
	if !registered(uuids, uuid) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uuid)
	}

	return loadAccount(ctx, m.store, uuid)
}

// LoadAll loads every registered account, preserving registry order. Loads
// run concurrently, bounded by WithMaxConcurrentLoads. The first failing
// load fails the whole operation.
func (m *Manager) LoadAll(ctx context.Context) (accounts []*Account, err error) {
	if err := m.checkConnected(); err != nil {
		return nil, err
	}

	ctx, end := m.otel.startSpan(ctx, "accounts.LoadAll")
	start := time.Now()
	defer func() {
		end(err)
		m.otel.recordList(ctx, time.Since(start), len(accounts), err)
	}()

	uuids, err := m.readRegistry(ctx)
	if err != nil {
		return nil, err
	}
	if len(uuids) == 0 {
		return nil, nil
	}

	results := make([]*Account, len(uuids))
	errs := make([]error, len(uuids))
	var wg sync.WaitGroup

	for i, uuid := range uuids {
		if err := m.loadSem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("accounts: load all: %w", err)
		}
		wg.Add(1)
		go func(i int, uuid string) {
			defer wg.Done()
			defer m.loadSem.Release(1)
			results[i], errs[i] = loadAccount(ctx, m.store, uuid)
		}(i, uuid)
	}
	wg.Wait()

	for _, loadErr := range errs {
		if loadErr != nil {
			return nil, loadErr
		}
	}
	return results, nil
}

// Save persists every setting of the account. The first save registers the
// account: it is assigned the smallest unused account number across its
// sibling accounts and its UUID is appended to the ordered list. All writes
// of a save are committed as one batch.
func (m *Manager) Save(ctx context.Context, a *Account) (err error) {
	if err := m.checkConnected(); err != nil {
		return err
	}

	ctx, end := m.otel.startSpan(ctx, "accounts.Save", attribute.String("account.uuid", a.UUID()))
	start := time.Now()
	created := false
	defer func() {
		end(err)
		m.otel.recordSave(ctx, time.Since(start), created, err)
	}()

	m.registryMu.Lock()
	defer m.registryMu.Unlock()

	uuids, err := m.readRegistry(ctx)
	if err != nil {
		return err
	}

	ed := m.store.Edit()

	if !registered(uuids, a.UUID()) {
		created = true
		number, err := m.allocateNumber(ctx, uuids)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.number = number
		a.mu.Unlock()

		writeRegistry(ed, append(uuids, a.UUID()))
	}

	if err := stageAccount(ctx, m.store, ed, a); err != nil {
		return err
	}
	if err := ed.Commit(ctx); err != nil {
		return fmt.Errorf("accounts: save %s: %w", a.UUID(), err)
	}

	m.logger.Debug("account saved", "account", a.UUID(), "created", created)

	if created {
		return m.publishCreated(ctx, a)
	}
	return nil
}

// allocateNumber returns the smallest non-negative account number not used
// by any registered account.
func (m *Manager) allocateNumber(ctx context.Context, uuids []string) (int, error) {
	taken := make([]int, 0, len(uuids))
	for _, uuid := range uuids {
		r := &reader{ctx: ctx, store: m.store, uuid: uuid}
		n := r.getInt("accountNumber", 0)
		if r.err != nil {
			return 0, r.err
		}
		taken = append(taken, n)
	}
	return nextAccountNumber(taken), nil
}

// Delete removes the account: every stored setting key, its identity keys,
// any certificates stored for its server endpoints, and its UUID from the
// ordered list. Deleting an unregistered account removes whatever keys
// exist and is otherwise a no-op, so Delete is idempotent.
func (m *Manager) Delete(ctx context.Context, a *Account) (err error) {
	if err := m.checkConnected(); err != nil {
		return err
	}

	ctx, end := m.otel.startSpan(ctx, "accounts.Delete", attribute.String("account.uuid", a.UUID()))
	start := time.Now()
	defer func() {
		end(err)
		m.otel.recordDelete(ctx, time.Since(start), err)
	}()

	m.deleteCertificates(a)

	m.registryMu.Lock()
	defer m.registryMu.Unlock()

	uuids, err := m.readRegistry(ctx)
	if err != nil {
		return err
	}

	ed := m.store.Edit()

	// Rewrite the registry only when this account was actually listed.
	remaining := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if u != a.UUID() {
			remaining = append(remaining, u)
		}
	}
	if len(remaining) < len(uuids) {
		writeRegistry(ed, remaining)
	}

	if err := stageDeleteAccount(ctx, m.store, ed, a.UUID()); err != nil {
		return err
	}
	if err := ed.Commit(ctx); err != nil {
		return fmt.Errorf("accounts: delete %s: %w", a.UUID(), err)
	}

	m.logger.Info("account deleted", "account", a.UUID())

	if err := m.events.AccountDeleted.Publish(ctx, AccountDeletedEvent{
		UUID:      a.UUID(),
		DeletedAt: time.Now().UTC(),
	}); err != nil {
		if m.opts.eventErrorsFatal {
			return &EventPublishError{Event: "AccountDeleted", UUID: a.UUID(), Err: err}
		}
		m.opts.safeEventPublishFailure("AccountDeleted", err)
	}
	return nil
}

func (m *Manager) publishCreated(ctx context.Context, a *Account) error {
	if err := m.events.AccountCreated.Publish(ctx, AccountCreatedEvent{
		UUID:      a.UUID(),
		Number:    a.Number(),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		if m.opts.eventErrorsFatal {
			return &EventPublishError{Event: "AccountCreated", UUID: a.UUID(), Err: err}
		}
		m.opts.safeEventPublishFailure("AccountCreated", err)
	}
	return nil
}

// MoveUp swaps the account one position earlier in the ordered list.
// Moving the first account is a no-op.
func (m *Manager) MoveUp(ctx context.Context, uuid string) error {
	return m.move(ctx, uuid, true)
}

// MoveDown swaps the account one position later in the ordered list.
// Moving the last account is a no-op.
func (m *Manager) MoveDown(ctx context.Context, uuid string) error {
	return m.move(ctx, uuid, false)
}

func (m *Manager) move(ctx context.Context, uuid string, up bool) (err error) {
	if err := m.checkConnected(); err != nil {
		return err
	}
	if uuid == "" {
		return ErrInvalidUUID
	}

	ctx, end := m.otel.startSpan(ctx, "accounts.Move",
		attribute.String("account.uuid", uuid), attribute.Bool("up", up))
	defer func() { end(err) }()

	m.registryMu.Lock()
	defer m.registryMu.Unlock()

	uuids, err := m.readRegistry(ctx)
	if err != nil {
		return err
	}

	index := -1
	for i, u := range uuids {
		if u == uuid {
			index = i
			break
		}
	}
	if index == -1 {
		return fmt.Errorf("%w: %s", ErrNotFound, uuid)
	}

	swap := index - 1
	if !up {
		swap = index + 1
	}
	if swap < 0 || swap >= len(uuids) {
		// Already at the boundary.
		return nil
	}
	uuids[index], uuids[swap] = uuids[swap], uuids[index]

	ed := m.store.Edit()
	writeRegistry(ed, uuids)
	if err := ed.Commit(ctx); err != nil {
		return fmt.Errorf("accounts: reorder: %w", err)
	}

	if err := m.events.AccountsReordered.Publish(ctx, AccountsReorderedEvent{
		UUIDs:       uuids,
		ReorderedAt: time.Now().UTC(),
	}); err != nil {
		if m.opts.eventErrorsFatal {
			return &EventPublishError{Event: "AccountsReordered", UUID: uuid, Err: err}
		}
		m.opts.safeEventPublishFailure("AccountsReordered", err)
	}
	return nil
}

// SetLocalStorageProviderID moves the account's local message store to the
// given provider and records the new id. When no storage switcher is
// configured the id changes without relocation. A failed relocation is
// logged and the account keeps its current provider; retrying would fail
// the same way.
func (m *Manager) SetLocalStorageProviderID(a *Account, id string) {
	a.mu.Lock()
	current := a.localStorageProviderID
	a.mu.Unlock()

	if current == id {
		return
	}

	if m.opts.storageSwitcher != nil {
		if err := m.opts.storageSwitcher.SwitchStorage(a, id); err != nil {
			m.logger.Error("switching local storage provider failed",
				"account", a.UUID(), "from", current, "to", id, "error", err)
			return
		}
	}

	a.mu.Lock()
	a.localStorageProviderID = id
	a.mu.Unlock()
}
