package delivery

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/securefabric/client-go/internal/api"
)

// PollingStrategy implements envelope delivery by periodically fetching each
// topic's messages, with adaptive backoff when nothing new arrives.
type PollingStrategy struct {
	apiClient *api.Client
	cfg       Config
	topics    map[string]*polledTopic
	handler   Handler
	cancel    context.CancelFunc
	mu        sync.RWMutex
	started   bool
}

// polledTopic carries per-topic poll state. seen tracks delivered message
// IDs because per-sender sequences are not totally ordered across senders.
type polledTopic struct {
	topic    string
	seen     map[string]struct{}
	interval time.Duration
}

// NewPollingStrategy creates a new polling strategy.
func NewPollingStrategy(cfg Config) *PollingStrategy {
	return &PollingStrategy{
		apiClient: cfg.APIClient,
		cfg:       cfg,
		topics:    make(map[string]*polledTopic),
	}
}

// Name returns the strategy name.
func (p *PollingStrategy) Name() string {
	return "polling"
}

// OnReconnect is a no-op: polling has no persistent connections.
func (p *PollingStrategy) OnReconnect(fn func(ctx context.Context)) {}

// Start begins polling the given topics.
func (p *PollingStrategy) Start(ctx context.Context, topics []string, handler Handler) error {
	p.mu.Lock()
	p.handler = handler
	for _, topic := range topics {
		p.topics[topic] = p.newPolledTopic(topic)
	}
	p.started = true
	p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)
	go p.pollLoop(ctx)
	return nil
}

// Stop gracefully shuts down the strategy.
func (p *PollingStrategy) Stop() error {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// AddTopic subscribes to a topic. It is picked up on the next poll cycle.
func (p *PollingStrategy) AddTopic(topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.topics[topic]; !exists {
		p.topics[topic] = p.newPolledTopic(topic)
	}
	return nil
}

// RemoveTopic unsubscribes from a topic.
func (p *PollingStrategy) RemoveTopic(topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.topics, topic)
	return nil
}

func (p *PollingStrategy) newPolledTopic(topic string) *polledTopic {
	return &polledTopic{
		topic:    topic,
		seen:     make(map[string]struct{}),
		interval: p.cfg.pollingInitialInterval(),
	}
}

func (p *PollingStrategy) pollLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		minWait := p.pollAll(ctx)
		if minWait == 0 {
			minWait = p.cfg.pollingInitialInterval()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(minWait):
		}
	}
}

// pollAll polls every subscribed topic once and returns the minimum wait
// duration (with jitter) until the next cycle.
func (p *PollingStrategy) pollAll(ctx context.Context) time.Duration {
	p.mu.RLock()
	topicList := make([]*polledTopic, 0, len(p.topics))
	for _, topic := range p.topics {
		topicList = append(topicList, topic)
	}
	p.mu.RUnlock()

	if len(topicList) == 0 {
		return p.cfg.pollingInitialInterval()
	}

	for _, topic := range topicList {
		p.pollTopic(ctx, topic)
	}

	var minWait time.Duration
	for _, topic := range topicList {
		wait := p.waitDuration(topic)
		if minWait == 0 || wait < minWait {
			minWait = wait
		}
	}
	return minWait
}

func (p *PollingStrategy) pollTopic(ctx context.Context, topic *polledTopic) {
	if p.apiClient == nil {
		return
	}

	envelopes, err := p.apiClient.FetchMessages(ctx, topic.topic, 0)
	if err != nil {
		return
	}

	p.mu.RLock()
	handler := p.handler
	p.mu.RUnlock()

	delivered := false
	for i := range envelopes {
		wire := &envelopes[i]
		if _, seen := topic.seen[wire.MsgID]; seen {
			continue
		}
		topic.seen[wire.MsgID] = struct{}{}
		delivered = true

		if handler != nil {
			handler(ctx, wire)
		}
	}

	if delivered {
		topic.interval = p.cfg.pollingInitialInterval()
		return
	}

	// Nothing new, back off.
	newInterval := time.Duration(float64(topic.interval) * p.cfg.pollingBackoffMultiplier())
	if max := p.cfg.pollingMaxBackoff(); newInterval > max {
		newInterval = max
	}
	topic.interval = newInterval
}

func (p *PollingStrategy) waitDuration(topic *polledTopic) time.Duration {
	// Jitter prevents thundering herd across clients polling the same node.
	jitter := time.Duration(rand.Float64() * p.cfg.pollingJitterFactor() * float64(topic.interval))
	return topic.interval + jitter
}
