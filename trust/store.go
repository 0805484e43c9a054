// Package trust provides TrustStore implementations.
package trust

import (
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/mailkit/accounts"
)

type endpoint struct {
	host string
	port int
}

// Store is an in-memory certificate trust store for tests and
// single-process deployments. Certificates are keyed by (host, port).
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	certs map[endpoint]*x509.Certificate
}

// Compile-time check
var _ accounts.TrustStore = (*Store)(nil)

// New creates an empty trust store.
func New() *Store {
	return &Store{certs: make(map[endpoint]*x509.Certificate)}
}

// AddCertificate records the certificate as trusted for host:port,
// replacing any previous certificate for that endpoint.
func (s *Store) AddCertificate(host string, port int, cert *x509.Certificate) error {
	if cert == nil {
		return fmt.Errorf("trust: certificate is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[endpoint{host: host, port: port}] = cert
	return nil
}

// DeleteCertificate forgets the certificate stored for host:port.
// Deleting an unknown endpoint is a no-op.
func (s *Store) DeleteCertificate(host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.certs, endpoint{host: host, port: port})
	return nil
}

// Certificate returns the trusted certificate for host:port, or false when
// none is stored.
func (s *Store) Certificate(host string, port int) (*x509.Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certs[endpoint{host: host, port: port}]
	return cert, ok
}

// Len returns the number of stored certificates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs)
}
