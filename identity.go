package accounts

import "strings"

// Identity is one sending persona of an account: the name, address and
// signature used on outgoing mail. An account always has at least one;
// the identity at index 0 is the account's primary identity.
type Identity struct {
	Name         string
	Email        string
	SignatureUse bool
	Signature    string
	Description  string
	ReplyTo      string
}

// Identities returns a copy of the account's identity list.
func (a *Account) Identities() []Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Identity, len(a.identities))
	copy(out, a.identities)
	return out
}

// SetIdentities replaces the account's identity list. The list must not be
// empty; an empty list is ignored so the primary-identity invariant holds.
func (a *Account) SetIdentities(identities []Identity) {
	if len(identities) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identities = make([]Identity, len(identities))
	copy(a.identities, identities)
}

// Identity returns the identity at index i.
func (a *Account) Identity(i int) (Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.identities) {
		return Identity{}, ErrIdentityIndex
	}
	return a.identities[i], nil
}

// FindIdentity returns the identity whose email matches addr
// (case-insensitively), or false if none does.
func (a *Account) FindIdentity(addr string) (Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range a.identities {
		if id.Email != "" && strings.EqualFold(id.Email, addr) {
			return id, true
		}
	}
	return Identity{}, false
}

// IsAnIdentity reports whether any of the given addresses belongs to one of
// the account's identities.
func (a *Account) IsAnIdentity(addrs ...string) bool {
	for _, addr := range addrs {
		if _, ok := a.FindIdentity(addr); ok {
			return true
		}
	}
	return false
}

// Primary-identity accessors. Several account-level settings are defined as
// views onto the identity at index 0.

// Name returns the primary identity's display name.
func (a *Account) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identities[0].Name
}

// SetName sets the primary identity's display name.
func (a *Account) SetName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identities[0].Name = name
}

// Email returns the primary identity's email address.
func (a *Account) Email() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identities[0].Email
}

// SetEmail sets the primary identity's email address.
func (a *Account) SetEmail(email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identities[0].Email = email
}

// Signature returns the primary identity's signature text.
func (a *Account) Signature() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identities[0].Signature
}

// SetSignature sets the primary identity's signature text.
func (a *Account) SetSignature(signature string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identities[0].Signature = signature
}

// SignatureUse reports whether the primary identity appends its signature.
func (a *Account) SignatureUse() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identities[0].SignatureUse
}

// SetSignatureUse sets whether the primary identity appends its signature.
func (a *Account) SetSignatureUse(use bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.identities[0].SignatureUse = use
}
