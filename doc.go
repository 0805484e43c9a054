// Package accounts manages mail account settings: creation, persistence,
// ordering, and deletion of per-account configuration over a pluggable flat
// key-value store.
//
// A Manager owns the registry of accounts and the backing store:
//
//	store := memory.New()
//	mgr, err := accounts.NewManager(accounts.WithStore(store))
//	if err != nil { ... }
//	if err := mgr.Connect(ctx); err != nil { ... }
//	defer mgr.Close(ctx)
//
//	a := mgr.NewAccount()
//	a.SetEmail("user@example.com")
//	a.SetStoreURI("imap://user@mail.example.com:993")
//	if err := mgr.Save(ctx, a); err != nil { ... }
//
// Accounts are identified by UUID and keep a user-defined order; Save
// registers a new account and assigns it the smallest free account number,
// Delete removes every trace of it, MoveUp and MoveDown adjust the order.
//
// Settings are stored one key per field under "<uuid>.<field>", so any
// kv.Store backend (kv/memory, kv/redis, kv/postgres, kv/mongo) can hold
// them. Absent keys decode to defaults; corrupt values fail the load.
//
// The backup package exports and imports snapshots of all account settings.
package accounts
