package securefabric

import (
	"net/http"
	"time"

	"github.com/securefabric/client-go/envelope"
)

// DeliveryStrategy specifies how the client receives subscribed messages.
type DeliveryStrategy string

const (
	// StrategyAuto tries streaming first, falls back to polling.
	StrategyAuto DeliveryStrategy = "auto"
	// StrategyStream uses a Server-Sent Events stream per topic.
	StrategyStream DeliveryStrategy = "stream"
	// StrategyPolling uses periodic fetches with adaptive backoff.
	StrategyPolling DeliveryStrategy = "polling"
)

const (
	defaultTimeout = 30 * time.Second
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	token            string
	httpClient       *http.Client
	deliveryStrategy DeliveryStrategy
	timeout          time.Duration
	retries          int
	retryOn          []int

	keypair      *envelope.Keypair
	signingSeed  []byte
	keyring      *envelope.Keyring
	replayWindow uint64
	tenantID     string
	contentType  string

	pollingInitialInterval   time.Duration
	pollingMaxBackoff        time.Duration
	pollingBackoffMultiplier float64
	pollingJitterFactor      float64
	streamConnectTimeout     time.Duration

	onVerifyError func(topic string, err error)
}

// sendConfig holds per-message overrides for Send.
type sendConfig struct {
	opts []envelope.AssembleOption
}

// Option configures the client.
type Option func(*clientConfig)

// SendOption configures a single Send call.
type SendOption func(*sendConfig)

// WithBearerToken sets the bearer token sent to the node on every request.
func WithBearerToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithKeypair sets the Ed25519 identity used to sign outgoing envelopes.
// If no keypair is configured, New generates a fresh one.
func WithKeypair(kp *envelope.Keypair) Option {
	return func(c *clientConfig) {
		c.keypair = kp
	}
}

// WithSigningSeed derives the signing identity from a 32-byte Ed25519 seed.
// Invalid seeds surface as an error from New.
func WithSigningSeed(seed []byte) Option {
	return func(c *clientConfig) {
		c.signingSeed = make([]byte, len(seed))
		copy(c.signingSeed, seed)
	}
}

// WithKeyring supplies symmetric key epochs for end-to-end payload
// encryption. The keyring's active version is used for outgoing envelopes
// and all registered versions are available for decrypting incoming ones.
func WithKeyring(k *envelope.Keyring) Option {
	return func(c *clientConfig) {
		c.keyring = k
	}
}

// WithReplayWindow sets the per-sender replay window size used when
// validating incoming envelopes. Zero selects the protocol default.
func WithReplayWindow(size uint64) Option {
	return func(c *clientConfig) {
		c.replayWindow = size
	}
}

// WithTenantID sets the tenant carried in every outgoing envelope's AAD
// unless overridden per message.
func WithTenantID(tenant string) Option {
	return func(c *clientConfig) {
		c.tenantID = tenant
	}
}

// WithContentType sets the content type carried in every outgoing
// envelope's AAD unless overridden per message.
func WithContentType(ct string) Option {
	return func(c *clientConfig) {
		c.contentType = ct
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithDeliveryStrategy sets the delivery strategy.
func WithDeliveryStrategy(strategy DeliveryStrategy) Option {
	return func(c *clientConfig) {
		c.deliveryStrategy = strategy
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries sets the number of retries for API calls.
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
// Default: [408, 429, 500, 502, 503, 504]
func WithRetryOn(statusCodes []int) Option {
	return func(c *clientConfig) {
		c.retryOn = statusCodes
	}
}

// WithPollingInitialInterval sets the initial polling interval.
// This is the interval used while messages are actively arriving.
// Default: 2 seconds
func WithPollingInitialInterval(interval time.Duration) Option {
	return func(c *clientConfig) {
		c.pollingInitialInterval = interval
	}
}

// WithPollingMaxBackoff sets the maximum polling backoff interval.
// When no new messages arrive, the polling interval increases up to this
// maximum. Default: 30 seconds
func WithPollingMaxBackoff(maxBackoff time.Duration) Option {
	return func(c *clientConfig) {
		c.pollingMaxBackoff = maxBackoff
	}
}

// WithPollingBackoffMultiplier sets the backoff multiplier for polling.
// After each poll with nothing new, the interval is multiplied by this
// factor. Default: 1.5
func WithPollingBackoffMultiplier(multiplier float64) Option {
	return func(c *clientConfig) {
		c.pollingBackoffMultiplier = multiplier
	}
}

// WithPollingJitterFactor sets the jitter factor for polling intervals.
// Random jitter up to this fraction of the interval is added to prevent
// synchronized polling across multiple clients. Default: 0.3 (30%)
func WithPollingJitterFactor(factor float64) Option {
	return func(c *clientConfig) {
		c.pollingJitterFactor = factor
	}
}

// WithStreamConnectTimeout sets the timeout for stream establishment.
// When using StrategyAuto, if the stream is not connected within this
// timeout the client falls back to polling. Default: 5 seconds
func WithStreamConnectTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.streamConnectTimeout = timeout
	}
}

// WithVerifyErrorHandler sets a callback invoked when an incoming envelope
// fails validation (bad signature, replay, tampering). Rejected envelopes
// are dropped either way; the callback exists for observability.
func WithVerifyErrorHandler(fn func(topic string, err error)) Option {
	return func(c *clientConfig) {
		c.onVerifyError = fn
	}
}

// WithSendTenantID overrides the tenant for one message.
func WithSendTenantID(tenant string) SendOption {
	return func(c *sendConfig) {
		c.opts = append(c.opts, envelope.WithTenantID(tenant))
	}
}

// WithSendContentType overrides the content type for one message.
func WithSendContentType(ct string) SendOption {
	return func(c *sendConfig) {
		c.opts = append(c.opts, envelope.WithContentType(ct))
	}
}

// WithSendKeyVersion selects the symmetric key epoch for one message,
// overriding the keyring's active version. 0 forces plaintext.
func WithSendKeyVersion(version uint32) SendOption {
	return func(c *sendConfig) {
		c.opts = append(c.opts, envelope.WithKeyVersion(version))
	}
}
