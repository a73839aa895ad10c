package delivery

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/securefabric/client-go/internal/api"
)

const (
	StreamReconnectInterval    = 5 * time.Second
	StreamMaxReconnectAttempts = 10
)

// StreamStrategy implements envelope delivery via a Server-Sent Events
// stream per topic.
type StreamStrategy struct {
	apiClient *api.Client
	handler   Handler
	ctx       context.Context
	cancel    context.CancelFunc

	mu          sync.RWMutex
	topics      map[string]context.CancelFunc // per-topic stream cancel
	started     bool
	lastError   error
	onReconnect func(ctx context.Context)

	connected     chan struct{} // closed on the first successful connection
	connectedOnce sync.Once
}

// NewStreamStrategy creates a new streaming strategy.
func NewStreamStrategy(cfg Config) *StreamStrategy {
	return &StreamStrategy{
		apiClient: cfg.APIClient,
		topics:    make(map[string]context.CancelFunc),
		connected: make(chan struct{}),
	}
}

// Name returns the strategy name.
func (s *StreamStrategy) Name() string {
	return "stream"
}

// Connected returns a channel that is closed once the first topic stream is
// established.
func (s *StreamStrategy) Connected() <-chan struct{} {
	return s.connected
}

// LastError returns the last connection error, if any.
func (s *StreamStrategy) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// OnReconnect sets the callback invoked after each successful reconnection.
func (s *StreamStrategy) OnReconnect(fn func(ctx context.Context)) {
	s.mu.Lock()
	s.onReconnect = fn
	s.mu.Unlock()
}

// Start begins streaming envelopes for the given topics.
func (s *StreamStrategy) Start(ctx context.Context, topics []string, handler Handler) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.mu.Lock()
	s.handler = handler
	s.started = true
	s.mu.Unlock()

	for _, topic := range topics {
		if err := s.AddTopic(topic); err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down the strategy.
func (s *StreamStrategy) Stop() error {
	s.mu.Lock()
	s.started = false
	s.topics = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// AddTopic opens a stream for a new topic.
func (s *StreamStrategy) AddTopic(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("stream strategy not started")
	}
	if _, exists := s.topics[topic]; exists {
		return nil
	}
	topicCtx, cancel := context.WithCancel(s.ctx)
	s.topics[topic] = cancel
	go s.connectLoop(topicCtx, topic)
	return nil
}

// RemoveTopic closes the stream for a topic.
func (s *StreamStrategy) RemoveTopic(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, exists := s.topics[topic]; exists {
		cancel()
		delete(s.topics, topic)
	}
	return nil
}

// connectLoop maintains the stream for one topic, reconnecting with
// exponential backoff until the context is cancelled or the reconnect
// attempts are exhausted.
func (s *StreamStrategy) connectLoop(ctx context.Context, topic string) {
	attempts := 0
	reconnected := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := s.consume(ctx, topic, reconnected)
		if err == nil {
			// Clean disconnect
			return
		}
		reconnected = true

		attempts++
		if attempts >= StreamMaxReconnectAttempts {
			s.mu.Lock()
			s.lastError = err
			s.mu.Unlock()
			return
		}

		wait := StreamReconnectInterval * time.Duration(1<<(attempts-1))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// consume opens the topic stream and dispatches envelopes until the
// connection drops.
func (s *StreamStrategy) consume(ctx context.Context, topic string, isReconnect bool) error {
	if s.apiClient == nil {
		err := fmt.Errorf("stream strategy: API client is nil")
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		return err
	}

	resp, err := s.apiClient.OpenStream(ctx, topic)
	if err != nil {
		s.mu.Lock()
		s.lastError = err
		s.mu.Unlock()
		return err
	}
	defer resp.Body.Close()

	s.connectedOnce.Do(func() {
		close(s.connected)
	})

	if isReconnect {
		s.mu.RLock()
		onReconnect := s.onReconnect
		s.mu.RUnlock()
		if onReconnect != nil {
			onReconnect(ctx)
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")

			var wire api.WireEnvelope
			if err := json.Unmarshal([]byte(data), &wire); err != nil {
				continue // Skip malformed events
			}

			s.mu.RLock()
			handler := s.handler
			s.mu.RUnlock()

			if handler != nil {
				handler(ctx, &wire)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	default:
		// Server closed the stream; treat as a dropped connection.
		return fmt.Errorf("stream for topic %q closed by server", topic)
	}
}
