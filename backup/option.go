package backup

import (
	"errors"
	"log/slog"

	"github.com/mailkit/accounts/retry"
)

// Construction errors.
var (
	// ErrManagerRequired is returned when no account manager is provided.
	ErrManagerRequired = errors.New("backup: manager is required")

	// ErrFileStoreRequired is returned when no file store is provided.
	ErrFileStoreRequired = errors.New("backup: file store is required")
)

// options holds archiver configuration.
type options struct {
	logger     *slog.Logger
	retry      retry.Config
	passphrase string
	filePrefix string
}

// Option configures the archiver.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{
		logger:     slog.Default(),
		retry:      retry.DefaultConfig(),
		filePrefix: "accounts",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetry sets the retry configuration used for uploads and downloads.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

// WithPassphrase enables sealing: exported snapshots are encrypted under a
// key derived from the passphrase, and sealed snapshots can be imported.
// Without a passphrase, snapshots are stored as plain JSON.
func WithPassphrase(passphrase string) Option {
	return func(o *options) {
		o.passphrase = passphrase
	}
}

// WithFilePrefix sets the filename prefix for uploaded snapshots.
// Default is "accounts".
func WithFilePrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.filePrefix = prefix
		}
	}
}
