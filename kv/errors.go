package kv

import "errors"

// Sentinel errors for the kv package.
var (
	// ErrNotConnected is returned when operations are attempted before Connect().
	ErrNotConnected = errors.New("kv: not connected")

	// ErrAlreadyConnected is returned when Connect() is called twice.
	ErrAlreadyConnected = errors.New("kv: already connected")

	// ErrInvalidKey is returned when an empty key is provided.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Error checking helpers.

func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}
