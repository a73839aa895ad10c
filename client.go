package securefabric

import (
	"context"
	"fmt"
	"sync"

	"github.com/securefabric/client-go/envelope"
	"github.com/securefabric/client-go/internal/api"
	"github.com/securefabric/client-go/internal/delivery"
)

// Message is a verified, opened envelope delivered to subscribers.
type Message struct {
	// Topic the message was published on.
	Topic string
	// Payload is the plaintext payload.
	Payload []byte
	// MsgID is the envelope's message ID (lowercase hex).
	MsgID string
	// Sender is the publisher's Ed25519 public key.
	Sender []byte
	// Seq is the publisher's sequence number for this message.
	Seq uint64
	// TenantID and ContentType carry the optional AAD fields, empty when
	// absent.
	TenantID    string
	ContentType string
	// KeyVersion is the symmetric key epoch the payload was encrypted
	// under, 0 for plaintext.
	KeyVersion uint32
}

// Stats holds node statistics.
type Stats struct {
	Peers        int
	Topics       int
	MessagesSent uint64
	LatencyP95MS float64
	Version      string
}

// Client is the SecureFabric client: it signs and publishes envelopes and
// verifies and opens the envelopes it receives.
type Client struct {
	apiClient    *api.Client
	assembler    *envelope.Assembler
	disassembler *envelope.Disassembler
	strategy     delivery.Strategy
	keypair      *envelope.Keypair

	mu     sync.RWMutex
	topics map[string]struct{} // topics registered with the strategy
	closed bool

	subs *subscriptionManager

	strategyCtx    context.Context
	strategyCancel context.CancelFunc

	onVerifyError func(topic string, err error)
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(endpoint string, cfg *clientConfig) (*api.Client, error) {
	apiOpts := []api.Option{}
	if cfg.token != "" {
		apiOpts = append(apiOpts, api.WithToken(cfg.token))
	}
	if cfg.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(cfg.timeout))
	}
	if cfg.retries > 0 {
		apiOpts = append(apiOpts, api.WithRetries(cfg.retries))
	}
	if len(cfg.retryOn) > 0 {
		apiOpts = append(apiOpts, api.WithRetryOn(cfg.retryOn))
	}

	apiClient, err := api.New(endpoint, apiOpts...)
	if err != nil {
		return nil, err
	}

	if cfg.httpClient != nil {
		apiClient.SetHTTPClient(cfg.httpClient)
	}

	return apiClient, nil
}

// createDeliveryStrategy creates a delivery strategy based on the config.
func createDeliveryStrategy(cfg *clientConfig, apiClient *api.Client) delivery.Strategy {
	deliveryCfg := delivery.Config{
		APIClient:                apiClient,
		PollingInitialInterval:   cfg.pollingInitialInterval,
		PollingMaxBackoff:        cfg.pollingMaxBackoff,
		PollingBackoffMultiplier: cfg.pollingBackoffMultiplier,
		PollingJitterFactor:      cfg.pollingJitterFactor,
		StreamConnectTimeout:     cfg.streamConnectTimeout,
	}
	switch cfg.deliveryStrategy {
	case StrategyPolling:
		return delivery.NewPollingStrategy(deliveryCfg)
	case StrategyAuto:
		return delivery.NewAutoStrategy(deliveryCfg)
	default:
		return delivery.NewStreamStrategy(deliveryCfg)
	}
}

// New creates a SecureFabric client for the node at endpoint. Without
// WithKeypair or WithSigningSeed a fresh Ed25519 identity is generated.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}

	cfg := &clientConfig{
		deliveryStrategy: StrategyStream,
		timeout:          defaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	keypair := cfg.keypair
	if cfg.signingSeed != nil {
		kp, err := envelope.KeypairFromSeed(cfg.signingSeed)
		if err != nil {
			return nil, err
		}
		keypair = kp
	}
	if keypair == nil {
		kp, err := envelope.GenerateKeypair()
		if err != nil {
			return nil, err
		}
		keypair = kp
	}

	apiClient, err := buildAPIClient(endpoint, cfg)
	if err != nil {
		return nil, err
	}

	asmOpts := []envelope.AssemblerOption{}
	if cfg.keyring != nil {
		asmOpts = append(asmOpts, envelope.WithKeyring(cfg.keyring))
	}
	if cfg.tenantID != "" {
		asmOpts = append(asmOpts, envelope.WithDefaultTenantID(cfg.tenantID))
	}
	if cfg.contentType != "" {
		asmOpts = append(asmOpts, envelope.WithDefaultContentType(cfg.contentType))
	}

	disOpts := []envelope.DisassemblerOption{}
	if cfg.keyring != nil {
		disOpts = append(disOpts, envelope.WithDecryptionKeyring(cfg.keyring))
	}
	if cfg.replayWindow > 0 {
		disOpts = append(disOpts, envelope.WithReplayWindow(cfg.replayWindow))
	}

	strategy := createDeliveryStrategy(cfg, apiClient)
	strategyCtx, strategyCancel := context.WithCancel(context.Background())

	c := &Client{
		apiClient:      apiClient,
		assembler:      envelope.NewAssembler(keypair, asmOpts...),
		disassembler:   envelope.NewDisassembler(disOpts...),
		strategy:       strategy,
		keypair:        keypair,
		topics:         make(map[string]struct{}),
		subs:           newSubscriptionManager(),
		strategyCtx:    strategyCtx,
		strategyCancel: strategyCancel,
		onVerifyError:  cfg.onVerifyError,
	}

	if err := strategy.Start(strategyCtx, nil, c.handleWireEnvelope); err != nil {
		strategyCancel()
		return nil, fmt.Errorf("start delivery strategy: %w", err)
	}

	return c, nil
}

// checkClosed returns ErrClientClosed if the client has been closed.
func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// PublicKey returns a copy of the client's Ed25519 public key.
func (c *Client) PublicKey() []byte {
	pk := make([]byte, len(c.keypair.PublicKey))
	copy(pk, c.keypair.PublicKey)
	return pk
}

// PublicKeyHex returns the client's public key as lowercase hex.
func (c *Client) PublicKeyHex() string {
	return c.keypair.PublicKeyHex
}

// Send signs, optionally encrypts, and publishes payload on topic. It
// returns the envelope's message ID.
func (c *Client) Send(ctx context.Context, topic string, payload []byte, opts ...SendOption) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	if topic == "" {
		return "", fmt.Errorf("%w: topic must not be empty", ErrInvalidParameters)
	}

	cfg := &sendConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	env, err := c.assembler.Assemble(topic, payload, cfg.opts...)
	if err != nil {
		return "", err
	}

	resp, err := c.apiClient.Send(ctx, api.FromEnvelope(env))
	if err != nil {
		return "", wrapError(err)
	}
	if !resp.Accepted {
		return "", fmt.Errorf("%w: msg_id %s", ErrSendRejected, env.MsgID)
	}

	return env.MsgID, nil
}

// Subscribe returns a channel that receives verified messages published on
// topic. The channel is not closed when the context is cancelled; select on
// ctx.Done() to detect cancellation.
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	msgs, err := client.Subscribe(ctx, "demo.messages")
//	if err != nil {
//	    return err
//	}
//	for {
//	    select {
//	    case <-ctx.Done():
//	        return nil
//	    case msg := <-msgs:
//	        fmt.Printf("%s: %s\n", msg.Topic, msg.Payload)
//	    }
//	}
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *Message, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic must not be empty", ErrInvalidParameters)
	}

	if err := c.registerTopic(topic); err != nil {
		return nil, err
	}

	ch := make(chan *Message, 16)
	unsub := c.subs.subscribe(topic, func(msg *Message) {
		// Spawn goroutine to guarantee delivery without blocking the
		// delivery strategy.
		go func(m *Message) { ch <- m }(msg)
	})

	// Cleanup goroutine: unsubscribe when the context is cancelled.
	// We intentionally do not close(ch) to avoid a race where an in-flight
	// callback tries to send after close.
	go func() {
		<-ctx.Done()
		unsub()
		c.releaseTopic(topic)
	}()

	return ch, nil
}

// SubscribeFunc calls fn for each message on topic until the context is
// cancelled. This is a convenience wrapper around Subscribe.
func (c *Client) SubscribeFunc(ctx context.Context, topic string, fn func(*Message)) error {
	msgs, err := c.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			if msg != nil {
				fn(msg)
			}
		}
	}
}

// registerTopic adds the topic to the delivery strategy on first use.
func (c *Client) registerTopic(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if _, exists := c.topics[topic]; exists {
		return nil
	}
	if err := c.strategy.AddTopic(topic); err != nil {
		return err
	}
	c.topics[topic] = struct{}{}
	return nil
}

// releaseTopic removes the topic from the delivery strategy once the last
// subscriber is gone.
func (c *Client) releaseTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.subs.count(topic) == 0 {
		if _, exists := c.topics[topic]; exists {
			c.strategy.RemoveTopic(topic)
			delete(c.topics, topic)
		}
	}
}

// Stats retrieves node statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	stats, err := c.apiClient.GetStats(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return &Stats{
		Peers:        stats.Peers,
		Topics:       stats.Topics,
		MessagesSent: stats.MessagesSent,
		LatencyP95MS: stats.LatencyP95MS,
		Version:      stats.Version,
	}, nil
}

// handleWireEnvelope processes an incoming wire envelope from the delivery
// strategy: decode, verify, open, notify subscribers. Envelopes that fail
// validation are dropped (reported via the verify-error handler if set).
func (c *Client) handleWireEnvelope(ctx context.Context, wire *api.WireEnvelope) error {
	if wire == nil {
		return nil
	}

	env, err := wire.ToEnvelope()
	if err != nil {
		c.reportVerifyError(wire.Topic, err)
		return err
	}

	payload, aad, err := c.disassembler.OpenWithAAD(env)
	if err != nil {
		c.reportVerifyError(env.Topic, err)
		return err
	}

	msg := &Message{
		Topic:       env.Topic,
		Payload:     payload,
		MsgID:       env.MsgID,
		Sender:      env.Pubkey,
		Seq:         env.Seq,
		TenantID:    aad.TenantID,
		ContentType: aad.ContentType,
		KeyVersion:  env.KeyVersion,
	}

	c.subs.notify(env.Topic, msg)
	return nil
}

func (c *Client) reportVerifyError(topic string, err error) {
	if c.onVerifyError != nil {
		c.onVerifyError(topic, err)
	}
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.strategyCancel != nil {
		c.strategyCancel()
	}
	if c.strategy != nil {
		if err := c.strategy.Stop(); err != nil {
			return err
		}
	}

	c.topics = make(map[string]struct{})
	c.subs.clear()

	return nil
}
