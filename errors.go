package accounts

import (
	"errors"
	"fmt"

	"github.com/mailkit/accounts/kv"
)

// Sentinel errors for the accounts package.
// Use errors.Is() to check for these errors.
//
// These errors wrap corresponding kv-level errors where applicable,
// so errors.Is(err, accounts.ErrNotConnected) will match both
// manager-level and store-level "not connected" errors.
var (
	// ErrStoreRequired is returned when no backing store is configured.
	ErrStoreRequired = errors.New("accounts: store is required")

	// ErrNotConnected is returned when operations are attempted before Connect().
	// Wraps kv.ErrNotConnected for consistent error checking.
	ErrNotConnected = fmt.Errorf("accounts: %w", kv.ErrNotConnected)

	// ErrAlreadyConnected is returned when Connect() is called twice.
	// Wraps kv.ErrAlreadyConnected for consistent error checking.
	ErrAlreadyConnected = fmt.Errorf("accounts: %w", kv.ErrAlreadyConnected)

	// ErrNotFound is returned when an account UUID is not in the registry.
	ErrNotFound = errors.New("accounts: account not found")

	// ErrInvalidUUID is returned when an empty UUID is provided.
	ErrInvalidUUID = errors.New("accounts: invalid uuid")

	// ErrUnknownValue is returned when a stored enum literal does not match
	// any known variant. Loads fail rather than coerce an account into an
	// unintended policy state. Use errors.As with *UnknownValueError for the
	// offending setting and literal.
	ErrUnknownValue = errors.New("accounts: unknown stored value")

	// ErrIdentityIndex is returned when an identity index is out of range.
	ErrIdentityIndex = errors.New("accounts: identity index out of range")
)

// Error checking helpers.

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnknownValue(err error) bool {
	return errors.Is(err, ErrUnknownValue)
}

// UnknownValueError reports a stored enum literal that matches no known
// variant. This is distinct from an absent key: an absent key yields the
// field's default, an unknown literal fails the whole load.
type UnknownValueError struct {
	// Setting is the type of setting being decoded (e.g. "FolderMode").
	Setting string
	// Value is the stored literal that failed to decode.
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("accounts: unknown %s value %q", e.Setting, e.Value)
}

func (e *UnknownValueError) Unwrap() error {
	return ErrUnknownValue
}

// CorruptValueError reports a stored numeric or boolean value that failed
// to parse. Like UnknownValueError, this fails the whole load.
type CorruptValueError struct {
	// Key is the full storage key that held the value.
	Key string
	// Value is the stored literal that failed to parse.
	Value string
	// Err is the underlying parse error.
	Err error
}

func (e *CorruptValueError) Error() string {
	return fmt.Sprintf("accounts: corrupt value %q for key %q: %v", e.Value, e.Key, e.Err)
}

func (e *CorruptValueError) Unwrap() error {
	return e.Err
}

// EventPublishError is returned when event publishing fails but the
// underlying operation succeeded. The account was saved or deleted; only
// the notification failed.
type EventPublishError struct {
	// Event is the event name (e.g. "AccountCreated").
	Event string
	// UUID is the account the event was for.
	UUID string
	// Err is the underlying publish error.
	Err error
}

func (e *EventPublishError) Error() string {
	return fmt.Sprintf("accounts: event %s publish failed for account %s: %v", e.Event, e.UUID, e.Err)
}

func (e *EventPublishError) Unwrap() error {
	return e.Err
}
