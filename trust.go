package accounts

import (
	"crypto/x509"
	"fmt"
	"net/url"
	"strconv"
)

// Direction distinguishes the incoming (store) and outgoing (transport)
// server of an account.
type Direction int

const (
	Incoming Direction = iota
	Outgoing
)

// TrustStore holds user-approved server certificates keyed by endpoint.
// The trust/ subpackage provides an in-memory implementation.
type TrustStore interface {
	// AddCertificate records the certificate as trusted for host:port.
	AddCertificate(host string, port int, cert *x509.Certificate) error

	// DeleteCertificate forgets any certificate stored for host:port.
	// Deleting an unknown endpoint is not an error.
	DeleteCertificate(host string, port int) error
}

// serverEndpoint extracts host and port from the account's server URI for
// the given direction. ok is false when the URI has no explicit port, which
// is the case on a freshly created account.
func serverEndpoint(a *Account, direction Direction) (host string, port int, ok bool, err error) {
	raw := a.StoreURI()
	if direction == Outgoing {
		raw = a.TransportURI()
	}
	if raw == "" {
		return "", 0, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("accounts: parse server uri: %w", err)
	}
	portStr := u.Port()
	if portStr == "" {
		return u.Hostname(), 0, false, nil
	}
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("accounts: parse server port: %w", err)
	}
	return u.Hostname(), port, true, nil
}

// AddCertificate records a certificate as trusted for the account's
// incoming or outgoing server endpoint.
func (m *Manager) AddCertificate(a *Account, direction Direction, cert *x509.Certificate) error {
	if m.trust == nil {
		return nil
	}
	host, port, ok, err := serverEndpoint(a, direction)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("accounts: no server endpoint for certificate")
	}
	return m.trust.AddCertificate(host, port, cert)
}

// DeleteCertificate compares the account's current endpoint for the given
// direction against the new host and port, and removes the certificate
// stored for the old endpoint when they differ. Accounts without an
// explicit port (never connected) have nothing to remove.
func (m *Manager) DeleteCertificate(a *Account, newHost string, newPort int, direction Direction) error {
	if m.trust == nil {
		return nil
	}
	oldHost, oldPort, ok, err := serverEndpoint(a, direction)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if newHost != oldHost || newPort != oldPort {
		return m.trust.DeleteCertificate(oldHost, oldPort)
	}
	return nil
}

// deleteCertificates removes any stored certificates for both of the
// account's server endpoints. Called when the account is deleted.
func (m *Manager) deleteCertificates(a *Account) {
	if m.trust == nil {
		return
	}
	for _, direction := range []Direction{Incoming, Outgoing} {
		host, port, ok, err := serverEndpoint(a, direction)
		if err != nil || !ok {
			continue
		}
		if err := m.trust.DeleteCertificate(host, port); err != nil {
			m.logger.Warn("failed to delete server certificate",
				"account", a.UUID(), "host", host, "port", port, "error", err)
		}
	}
}
