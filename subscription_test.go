package securefabric

import (
	"sync"
	"testing"
)

func TestSubscriptionManager_NotifyByTopic(t *testing.T) {
	m := newSubscriptionManager()

	var gotA, gotB []*Message
	m.subscribe("a", func(msg *Message) { gotA = append(gotA, msg) })
	m.subscribe("b", func(msg *Message) { gotB = append(gotB, msg) })

	m.notify("a", &Message{Topic: "a", Payload: []byte("one")})
	m.notify("a", &Message{Topic: "a", Payload: []byte("two")})
	m.notify("b", &Message{Topic: "b", Payload: []byte("three")})

	if len(gotA) != 2 {
		t.Errorf("topic a received %d messages, want 2", len(gotA))
	}
	if len(gotB) != 1 || string(gotB[0].Payload) != "three" {
		t.Errorf("topic b received %v", gotB)
	}
}

func TestSubscriptionManager_MultipleSubscribers(t *testing.T) {
	m := newSubscriptionManager()

	var first, second int
	m.subscribe("t", func(*Message) { first++ })
	m.subscribe("t", func(*Message) { second++ })

	m.notify("t", &Message{Topic: "t"})
	if first != 1 || second != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", first, second)
	}
}

func TestSubscriptionManager_Unsubscribe(t *testing.T) {
	m := newSubscriptionManager()

	var calls int
	unsub := m.subscribe("t", func(*Message) { calls++ })

	m.notify("t", &Message{})
	unsub()
	m.notify("t", &Message{})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if m.count("t") != 0 {
		t.Errorf("count = %d, want 0", m.count("t"))
	}

	// Safe to call twice.
	unsub()
}

func TestSubscriptionManager_Count(t *testing.T) {
	m := newSubscriptionManager()

	if m.count("t") != 0 {
		t.Errorf("empty count = %d", m.count("t"))
	}
	unsub1 := m.subscribe("t", func(*Message) {})
	unsub2 := m.subscribe("t", func(*Message) {})
	if m.count("t") != 2 {
		t.Errorf("count = %d, want 2", m.count("t"))
	}
	unsub1()
	if m.count("t") != 1 {
		t.Errorf("count = %d, want 1", m.count("t"))
	}
	unsub2()
	if m.count("t") != 0 {
		t.Errorf("count = %d, want 0", m.count("t"))
	}
}

func TestSubscriptionManager_NotifyWithoutSubscribers(t *testing.T) {
	m := newSubscriptionManager()
	// Must not panic.
	m.notify("nobody", &Message{})
}

func TestSubscriptionManager_Clear(t *testing.T) {
	m := newSubscriptionManager()

	var calls int
	m.subscribe("a", func(*Message) { calls++ })
	m.subscribe("b", func(*Message) { calls++ })

	m.clear()
	m.notify("a", &Message{})
	m.notify("b", &Message{})

	if calls != 0 {
		t.Errorf("calls after clear = %d, want 0", calls)
	}
}

func TestSubscriptionManager_ConcurrentAccess(t *testing.T) {
	m := newSubscriptionManager()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				unsub := m.subscribe("t", func(*Message) {})
				m.notify("t", &Message{})
				unsub()
			}
		}()
	}
	wg.Wait()

	if m.count("t") != 0 {
		t.Errorf("count after churn = %d, want 0", m.count("t"))
	}
}
