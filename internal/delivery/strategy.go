package delivery

import (
	"context"
	"time"

	"github.com/securefabric/client-go/internal/api"
)

// Handler is a callback function invoked for each envelope that arrives on a
// subscribed topic. The handler receives the delivery context and the wire
// form of the envelope; verification and decryption happen in the caller.
// Return an error to signal processing failure (currently errors are not
// propagated, but this may change).
type Handler func(ctx context.Context, wire *api.WireEnvelope) error

// Strategy defines the interface for message delivery mechanisms.
// Implementations include StreamStrategy, PollingStrategy, and AutoStrategy.
//
// The typical lifecycle is:
//  1. Create a strategy with NewXxxStrategy(cfg)
//  2. Call Start(ctx, topics, handler) to begin receiving envelopes
//  3. Optionally call AddTopic/RemoveTopic to modify subscriptions
//  4. Call Stop() when done to release resources
//
// All implementations are safe for concurrent use.
type Strategy interface {
	// Start begins listening for envelopes on the given topics.
	// The handler is called for each envelope that arrives.
	// Start returns immediately; delivery is asynchronous.
	Start(ctx context.Context, topics []string, handler Handler) error

	// Stop gracefully shuts down the strategy and releases resources.
	// After Stop returns, no more envelopes will be delivered.
	// Stop is idempotent and safe to call multiple times.
	Stop() error

	// AddTopic subscribes to a topic. Envelopes begin flowing according to
	// the strategy's behavior (next poll cycle for polling, immediately via
	// a new stream for streaming).
	AddTopic(topic string) error

	// RemoveTopic unsubscribes from a topic. Envelopes stop flowing after
	// the current processing cycle completes.
	RemoveTopic(topic string) error

	// Name returns the strategy name for debugging.
	// Examples: "polling", "stream", "auto:stream", "auto:polling"
	Name() string

	// OnReconnect sets a callback that is invoked after each successful
	// stream reconnection. For polling this is a no-op since polling has no
	// persistent connections. Use it to fetch envelopes that may have
	// arrived during the reconnection window.
	OnReconnect(fn func(ctx context.Context))
}

// Config holds configuration shared by all delivery strategies.
type Config struct {
	// APIClient is the transport used for node requests.
	APIClient *api.Client

	// PollingInitialInterval is the starting interval between polls.
	// If zero, defaults to DefaultPollingInitialInterval.
	PollingInitialInterval time.Duration

	// PollingMaxBackoff is the maximum interval between polls.
	// If zero, defaults to DefaultPollingMaxBackoff.
	PollingMaxBackoff time.Duration

	// PollingBackoffMultiplier is the factor by which the interval
	// increases after each poll with no new envelopes.
	// If zero, defaults to DefaultPollingBackoffMultiplier.
	PollingBackoffMultiplier float64

	// PollingJitterFactor is the maximum random jitter added to poll
	// intervals (as a fraction of the interval).
	// If zero, defaults to DefaultPollingJitterFactor.
	PollingJitterFactor float64

	// StreamConnectTimeout is the maximum time to wait for a stream
	// connection to be established before falling back to polling (when
	// using auto mode). If zero, defaults to DefaultStreamConnectTimeout.
	StreamConnectTimeout time.Duration
}

// Default delivery configuration values.
const (
	DefaultPollingInitialInterval   = 2 * time.Second
	DefaultPollingMaxBackoff        = 30 * time.Second
	DefaultPollingBackoffMultiplier = 1.5
	DefaultPollingJitterFactor      = 0.3
	DefaultStreamConnectTimeout     = 5 * time.Second
)

func (c Config) pollingInitialInterval() time.Duration {
	if c.PollingInitialInterval > 0 {
		return c.PollingInitialInterval
	}
	return DefaultPollingInitialInterval
}

func (c Config) pollingMaxBackoff() time.Duration {
	if c.PollingMaxBackoff > 0 {
		return c.PollingMaxBackoff
	}
	return DefaultPollingMaxBackoff
}

func (c Config) pollingBackoffMultiplier() float64 {
	if c.PollingBackoffMultiplier > 0 {
		return c.PollingBackoffMultiplier
	}
	return DefaultPollingBackoffMultiplier
}

func (c Config) pollingJitterFactor() float64 {
	if c.PollingJitterFactor > 0 {
		return c.PollingJitterFactor
	}
	return DefaultPollingJitterFactor
}

func (c Config) streamConnectTimeout() time.Duration {
	if c.StreamConnectTimeout > 0 {
		return c.StreamConnectTimeout
	}
	return DefaultStreamConnectTimeout
}
