package trust

import (
	"crypto/x509"
	"testing"
)

func testCert(cn string) *x509.Certificate {
	cert := &x509.Certificate{}
	cert.Subject.CommonName = cn
	return cert
}

func TestStore(t *testing.T) {
	t.Run("add and get", func(t *testing.T) {
		s := New()
		if err := s.AddCertificate("mail.example.com", 993, testCert("a")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cert, ok := s.Certificate("mail.example.com", 993)
		if !ok {
			t.Fatal("expected certificate to be stored")
		}
		if cert.Subject.CommonName != "a" {
			t.Errorf("expected certificate a, got %q", cert.Subject.CommonName)
		}
	})

	t.Run("endpoints are independent", func(t *testing.T) {
		s := New()
		s.AddCertificate("mail.example.com", 993, testCert("imap"))
		s.AddCertificate("mail.example.com", 465, testCert("smtp"))

		if s.Len() != 2 {
			t.Errorf("expected 2 certificates, got %d", s.Len())
		}
		if cert, _ := s.Certificate("mail.example.com", 465); cert.Subject.CommonName != "smtp" {
			t.Errorf("expected smtp certificate, got %q", cert.Subject.CommonName)
		}
	})

	t.Run("add replaces existing", func(t *testing.T) {
		s := New()
		s.AddCertificate("mail.example.com", 993, testCert("old"))
		s.AddCertificate("mail.example.com", 993, testCert("new"))

		cert, _ := s.Certificate("mail.example.com", 993)
		if cert.Subject.CommonName != "new" {
			t.Errorf("expected new certificate, got %q", cert.Subject.CommonName)
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 certificate, got %d", s.Len())
		}
	})

	t.Run("nil certificate rejected", func(t *testing.T) {
		s := New()
		if err := s.AddCertificate("mail.example.com", 993, nil); err == nil {
			t.Error("expected error for nil certificate")
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := New()
		s.AddCertificate("mail.example.com", 993, testCert("a"))

		if err := s.DeleteCertificate("mail.example.com", 993); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := s.Certificate("mail.example.com", 993); ok {
			t.Error("expected certificate to be deleted")
		}
	})

	t.Run("delete unknown endpoint is a no-op", func(t *testing.T) {
		s := New()
		if err := s.DeleteCertificate("unknown.example.com", 993); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
