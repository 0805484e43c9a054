package accounts

import (
	"log/slog"

	"github.com/rbaliyan/event/v3/transport"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mailkit/accounts/kv"
)

// Default configuration values.
const (
	// DefaultMaxConcurrentLoads bounds the fan-out of LoadAll.
	DefaultMaxConcurrentLoads = 8
)

// StorageSwitcher relocates an account's local message store between
// storage providers. SetLocalStorageProviderID delegates the actual data
// move to it before committing the new provider id.
type StorageSwitcher interface {
	SwitchStorage(a *Account, newProviderID string) error
}

// options holds manager configuration.
type options struct {
	store  kv.Store
	logger *slog.Logger
	trust  TrustStore

	storageSwitcher StorageSwitcher

	// Concurrency limits
	maxConcurrentLoads int

	// New-account defaults
	defaultSignature           string
	defaultIdentityDescription string
	defaultStorageProviderID   string

	// OpenTelemetry
	tracingEnabled bool
	metricsEnabled bool
	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Event handling
	eventErrorsFatal      bool
	eventTransport        transport.Transport
	redisClient           redis.UniversalClient
	onEventPublishFailure EventPublishFailureFunc
}

// EventPublishFailureFunc is called when an event fails to publish.
// The eventName is the name of the event (e.g., "AccountCreated"), and err
// is the publish error.
type EventPublishFailureFunc func(eventName string, err error)

// safeEventPublishFailure calls the event failure callback with panic
// recovery, so a broken handler cannot take the save path down with it.
func (o *options) safeEventPublishFailure(eventName string, err error) {
	if o.onEventPublishFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic in event publish failure handler",
				"event", eventName,
				"original_error", err,
				"panic", r,
			)
		}
	}()
	o.onEventPublishFailure(eventName, err)
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		logger:             slog.Default(),
		maxConcurrentLoads: DefaultMaxConcurrentLoads,
	}
	for _, opt := range opts {
		opt(o)
	}

	// Ensure event failure callback is always set
	if o.onEventPublishFailure == nil {
		o.onEventPublishFailure = func(eventName string, err error) {
			o.logger.Error("failed to publish event", "event", eventName, "error", err)
		}
	}

	return o
}

// Option configures a manager.
type Option func(*options)

// --- Core Options ---

// WithStore sets the settings storage backend (required).
func WithStore(s kv.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTrustStore sets the certificate trust store. When set, certificates
// recorded for an account's server endpoints are removed when the account
// is deleted or its endpoint changes.
func WithTrustStore(ts TrustStore) Option {
	return func(o *options) {
		if ts != nil {
			o.trust = ts
		}
	}
}

// WithStorageSwitcher sets the collaborator that relocates local message
// storage when an account's storage provider changes. Without one,
// SetLocalStorageProviderID only updates the setting.
func WithStorageSwitcher(s StorageSwitcher) Option {
	return func(o *options) {
		if s != nil {
			o.storageSwitcher = s
		}
	}
}

// --- New-account defaults ---

// WithDefaultSignature sets the signature seeded into new accounts'
// primary identity.
func WithDefaultSignature(signature string) Option {
	return func(o *options) {
		o.defaultSignature = signature
	}
}

// WithDefaultIdentityDescription sets the description seeded into new
// accounts' primary identity.
func WithDefaultIdentityDescription(description string) Option {
	return func(o *options) {
		o.defaultIdentityDescription = description
	}
}

// WithDefaultStorageProviderID sets the storage provider assigned to new
// accounts.
func WithDefaultStorageProviderID(id string) Option {
	return func(o *options) {
		o.defaultStorageProviderID = id
	}
}

// --- Concurrency Options ---

// WithMaxConcurrentLoads sets the maximum number of accounts loaded in
// parallel by LoadAll. Default is 8.
func WithMaxConcurrentLoads(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrentLoads = n
		}
	}
}

// --- OTel Options ---

// WithTracing enables or disables OpenTelemetry tracing.
// When enabled, spans are created for all account operations.
// Default is disabled.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
// When enabled, metrics are collected for all account operations.
// Default is disabled.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithOTel enables both OpenTelemetry tracing and metrics.
// This is a convenience function equivalent to calling
// WithTracing(true) and WithMetrics(true).
func WithOTel(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
		o.metricsEnabled = enabled
	}
}

// WithServiceName sets the service name for OpenTelemetry telemetry and
// the event bus name. Default is "accounts".
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithTracerProvider sets a custom OpenTelemetry tracer provider.
// Default uses the global tracer provider from otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets a custom OpenTelemetry meter provider.
// Default uses the global meter provider from otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// --- Event Options ---

// WithEventErrorsFatal configures whether event publishing failures should
// cause the operation to fail. By default, event failures are logged but
// the operation succeeds (the account is still saved or deleted).
func WithEventErrorsFatal(fatal bool) Option {
	return func(o *options) {
		o.eventErrorsFatal = fatal
	}
}

// WithEventTransport sets the event transport for publishing and
// subscribing. If not provided, a noop transport is used (events are
// silently dropped).
func WithEventTransport(t transport.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.eventTransport = t
		}
	}
}

// WithRedisClient sets a Redis client for the event transport.
// When provided, events are published to Redis Streams for reliable
// delivery.
//
// Compatible with *redis.Client, *redis.ClusterClient, and
// redis.UniversalClient.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		if client != nil {
			o.redisClient = client
		}
	}
}

// WithEventPublishFailureHandler sets a callback for event publishing
// failures. It is invoked whenever an event fails to publish and
// eventErrorsFatal is false. Use this for custom logging, metrics, or
// alerting on event failures.
//
// By default, failures are logged using the configured logger.
func WithEventPublishFailureHandler(fn EventPublishFailureFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.onEventPublishFailure = fn
		}
	}
}
