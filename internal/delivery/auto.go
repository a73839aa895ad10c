package delivery

import (
	"context"
	"sync"
	"time"
)

// AutoStrategy tries streaming first and falls back to polling when the
// stream does not connect in time. The stream only connects per topic, so
// when Start is called before any topic is registered the choice is
// deferred until the first AddTopic.
type AutoStrategy struct {
	cfg Config

	mu          sync.Mutex
	ctx         context.Context
	handler     Handler
	current     Strategy
	started     bool
	onReconnect func(ctx context.Context)
}

// NewAutoStrategy creates a new auto strategy.
func NewAutoStrategy(cfg Config) *AutoStrategy {
	return &AutoStrategy{
		cfg: cfg,
	}
}

// Name returns the strategy name.
func (a *AutoStrategy) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		return "auto:" + a.current.Name()
	}
	return "auto"
}

// OnReconnect sets the reconnect callback on whichever strategy ends up
// active.
func (a *AutoStrategy) OnReconnect(fn func(ctx context.Context)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReconnect = fn
	if a.current != nil {
		a.current.OnReconnect(fn)
	}
}

// Start begins delivery. With topics it probes the stream immediately;
// without, the stream-vs-polling decision waits for the first AddTopic.
func (a *AutoStrategy) Start(ctx context.Context, topics []string, handler Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ctx = ctx
	a.handler = handler
	a.started = true

	if len(topics) == 0 {
		return nil
	}
	return a.decide(topics)
}

// decide starts the stream for the given topics and waits for it to
// connect; on timeout or start failure it falls back to polling. Called
// with a.mu held.
func (a *AutoStrategy) decide(topics []string) error {
	stream := NewStreamStrategy(a.cfg)
	if err := stream.Start(a.ctx, topics, a.handler); err != nil {
		return a.startPolling(topics)
	}

	select {
	case <-stream.Connected():
		a.current = stream
		if a.onReconnect != nil {
			stream.OnReconnect(a.onReconnect)
		}
		return nil
	case <-time.After(a.cfg.streamConnectTimeout()):
		stream.Stop()
		return a.startPolling(topics)
	case <-a.ctx.Done():
		stream.Stop()
		return a.ctx.Err()
	}
}

// startPolling is called with a.mu held.
func (a *AutoStrategy) startPolling(topics []string) error {
	polling := NewPollingStrategy(a.cfg)
	if err := polling.Start(a.ctx, topics, a.handler); err != nil {
		return err
	}
	a.current = polling
	if a.onReconnect != nil {
		polling.OnReconnect(a.onReconnect)
	}
	return nil
}

// Stop gracefully shuts down the strategy.
func (a *AutoStrategy) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = false
	if a.current != nil {
		return a.current.Stop()
	}
	return nil
}

// AddTopic subscribes to a topic. The first topic triggers the deferred
// stream-vs-polling probe.
func (a *AutoStrategy) AddTopic(topic string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		return a.current.AddTopic(topic)
	}
	if !a.started {
		return nil
	}
	return a.decide([]string{topic})
}

// RemoveTopic unsubscribes from a topic.
func (a *AutoStrategy) RemoveTopic(topic string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		return a.current.RemoveTopic(topic)
	}
	return nil
}
