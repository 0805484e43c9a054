package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/rbaliyan/event/v3"
)

// Event names for account lifecycle events.
const (
	EventNameAccountCreated    = "accounts.account.created"
	EventNameAccountDeleted    = "accounts.account.deleted"
	EventNameAccountsReordered = "accounts.reordered"
)

// AccountCreatedEvent is published the first time an account is saved.
type AccountCreatedEvent struct {
	UUID      string    `json:"uuid"`
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountDeletedEvent is published when an account and all of its settings
// are removed.
type AccountDeletedEvent struct {
	UUID      string    `json:"uuid"`
	DeletedAt time.Time `json:"deleted_at"`
}

// AccountsReorderedEvent is published when the ordered account list
// changes through MoveUp or MoveDown.
type AccountsReorderedEvent struct {
	UUIDs       []string  `json:"uuids"`
	ReorderedAt time.Time `json:"reordered_at"`
}

// ManagerEvents provides access to per-manager event instances.
// Each manager creates its own events bound to its own event bus, enabling
// independent event routing and parallel testing.
//
// Subscribe to events:
//
//	mgr.Events().AccountCreated.Subscribe(ctx, handler)
//	mgr.Events().AccountDeleted.Subscribe(ctx, handler)
type ManagerEvents struct {
	// AccountCreated is published the first time an account is saved.
	AccountCreated event.Event[AccountCreatedEvent]

	// AccountDeleted is published when an account is removed.
	AccountDeleted event.Event[AccountDeletedEvent]

	// AccountsReordered is published when the account order changes.
	AccountsReordered event.Event[AccountsReorderedEvent]
}

// newManagerEvents creates per-manager event instances with a unique name
// prefix.
func newManagerEvents(namePrefix string) *ManagerEvents {
	return &ManagerEvents{
		AccountCreated:    event.New[AccountCreatedEvent](namePrefix + "." + EventNameAccountCreated),
		AccountDeleted:    event.New[AccountDeletedEvent](namePrefix + "." + EventNameAccountDeleted),
		AccountsReordered: event.New[AccountsReorderedEvent](namePrefix + "." + EventNameAccountsReordered),
	}
}

// registerManagerEvents registers per-manager events with the given bus.
func registerManagerEvents(ctx context.Context, bus *event.Bus, events *ManagerEvents) error {
	if err := event.Register(ctx, bus, events.AccountCreated); err != nil {
		return fmt.Errorf("register AccountCreated: %w", err)
	}
	if err := event.Register(ctx, bus, events.AccountDeleted); err != nil {
		return fmt.Errorf("register AccountDeleted: %w", err)
	}
	if err := event.Register(ctx, bus, events.AccountsReordered); err != nil {
		return fmt.Errorf("register AccountsReordered: %w", err)
	}
	return nil
}
