package backup

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed snapshots are XChaCha20-Poly1305 over an Argon2id-derived key:
// magic || salt || nonce || ciphertext. Argon2id parameters follow the
// OWASP recommendation.
const (
	argonTime    = 3
	argonMemory  = 32 * 1024 // KiB
	argonThreads = 4
	saltSize     = 16
)

// sealMagic identifies a sealed snapshot file.
var sealMagic = []byte("MKSNAP1\x00")

// Sealing errors.
var (
	// ErrPassphraseRequired is returned when importing a sealed snapshot
	// without a passphrase configured.
	ErrPassphraseRequired = errors.New("backup: snapshot is sealed, passphrase required")

	// ErrUnsealFailed is returned when decryption fails: wrong passphrase
	// or corrupt snapshot data.
	ErrUnsealFailed = errors.New("backup: unseal failed")
)

// deriveKey derives the snapshot encryption key from the passphrase.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// seal encrypts plaintext under a key derived from the passphrase.
func seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("backup: generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("backup: create cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("backup: generate nonce: %w", err)
	}

	out := make([]byte, 0, len(sealMagic)+saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// isSealed reports whether data carries the sealed-snapshot magic.
func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic)
}

// unseal decrypts a sealed snapshot with the passphrase.
func unseal(passphrase string, data []byte) ([]byte, error) {
	rest := data[len(sealMagic):]
	if len(rest) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: truncated data", ErrUnsealFailed)
	}

	salt := rest[:saltSize]
	nonce := rest[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	ciphertext := rest[saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("backup: create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	return plaintext, nil
}
