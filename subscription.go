package securefabric

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// subscription represents an active topic subscription.
type subscription struct {
	id       string
	topic    string
	callback func(*Message)
	active   atomic.Bool
}

// subscriptionManager handles topic subscriptions with safe lifecycle
// management. It ensures callbacks are never invoked after unsubscription
// completes.
type subscriptionManager struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*subscription // topic -> subID -> subscription
	nextID atomic.Uint64
}

// newSubscriptionManager creates a new subscription manager.
func newSubscriptionManager() *subscriptionManager {
	return &subscriptionManager{
		subs: make(map[string]map[string]*subscription),
	}
}

// subscribe registers a callback for messages arriving on the given topic.
// The callback will be invoked synchronously when messages arrive.
// Returns an unsubscribe function that must be called to clean up.
func (m *subscriptionManager) subscribe(topic string, callback func(*Message)) func() {
	id := strconv.FormatUint(m.nextID.Add(1), 10)

	sub := &subscription{
		id:       id,
		topic:    topic,
		callback: callback,
	}
	sub.active.Store(true)

	m.mu.Lock()
	if m.subs[topic] == nil {
		m.subs[topic] = make(map[string]*subscription)
	}
	m.subs[topic][id] = sub
	m.mu.Unlock()

	return func() {
		m.unsubscribe(topic, id)
	}
}

// unsubscribe removes a subscription. Safe to call multiple times.
func (m *subscriptionManager) unsubscribe(topic, subID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if topicSubs, ok := m.subs[topic]; ok {
		if sub, ok := topicSubs[subID]; ok {
			sub.active.Store(false) // Mark inactive before removing
			delete(topicSubs, subID)
			if len(topicSubs) == 0 {
				delete(m.subs, topic)
			}
		}
	}
}

// count returns the number of live subscriptions for a topic.
func (m *subscriptionManager) count(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[topic])
}

// notify calls all registered callbacks for the given topic.
// Callbacks are invoked synchronously after releasing the read lock.
// The active flag is checked before invoking to prevent calls after
// unsubscribe.
func (m *subscriptionManager) notify(topic string, msg *Message) {
	m.mu.RLock()
	topicSubs := m.subs[topic]
	if len(topicSubs) == 0 {
		m.mu.RUnlock()
		return
	}

	// Copy subscriptions to avoid holding lock during callbacks
	subs := make([]*subscription, 0, len(topicSubs))
	for _, sub := range topicSubs {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.callback(msg)
		}
	}
}

// clear removes all subscriptions. Called during Client.Close().
func (m *subscriptionManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, topicSubs := range m.subs {
		for _, sub := range topicSubs {
			sub.active.Store(false)
		}
	}
	m.subs = make(map[string]map[string]*subscription)
}
