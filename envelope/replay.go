package envelope

import (
	"sync"
	"sync/atomic"
)

// ReplayFilter tracks received sequence numbers for a single sender inside
// a sliding window. It is held by receivers only; senders never consult it.
// Methods are safe for concurrent use.
type ReplayFilter struct {
	mu      sync.Mutex
	highest uint64
	window  []uint64 // bitset over the size most recent sequence numbers
	size    uint64
}

// NewReplayFilter creates a filter with the given window size. A size of 0
// selects DefaultReplayWindow. The initial state has seen no sequence
// number, so the first valid seq is 1 or greater.
func NewReplayFilter(windowSize uint64) *ReplayFilter {
	if windowSize == 0 {
		windowSize = DefaultReplayWindow
	}
	return &ReplayFilter{
		window: make([]uint64, (windowSize+63)/64),
		size:   windowSize,
	}
}

// WindowSize returns the filter's window size in sequence numbers.
func (f *ReplayFilter) WindowSize() uint64 {
	return f.size
}

// Observe accepts or rejects a received sequence number, mutating the
// window on acceptance. seq 0, a sequence older than the window, and a
// sequence already marked seen all fail with ErrReplayDetected.
func (f *ReplayFilter) Observe(seq uint64) error {
	if seq == 0 {
		return ErrReplayDetected
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq > f.highest {
		f.shift(seq - f.highest)
		f.setBit(0)
		f.highest = seq
		return nil
	}

	diff := f.highest - seq
	if diff >= f.size {
		return ErrReplayDetected // outside trust window
	}
	if f.bit(diff) {
		return ErrReplayDetected
	}
	f.setBit(diff)
	return nil
}

// shift advances the window by n positions: the bit for a given sequence
// number moves n places toward the old end.
func (f *ReplayFilter) shift(n uint64) {
	if n >= f.size {
		for i := range f.window {
			f.window[i] = 0
		}
		return
	}
	words := int(n / 64)
	bits := n % 64
	w := f.window
	for i := len(w) - 1; i >= 0; i-- {
		var v uint64
		if i >= words {
			v = w[i-words] << bits
			if bits > 0 && i-words-1 >= 0 {
				v |= w[i-words-1] >> (64 - bits)
			}
		}
		w[i] = v
	}
}

// bit reports whether the sequence number at offset diff below highest has
// been seen. diff must be < size.
func (f *ReplayFilter) bit(diff uint64) bool {
	return f.window[diff/64]&(1<<(diff%64)) != 0
}

func (f *ReplayFilter) setBit(diff uint64) {
	f.window[diff/64] |= 1 << (diff % 64)
}

// DefaultMaxSenders bounds the number of per-sender filters a
// ReplayRegistry retains before evicting the least recently active sender.
const DefaultMaxSenders = 4096

// ReplayRegistry owns one ReplayFilter per observed sender identity, keyed
// by sender public key. Each filter carries its own lock, so observations
// for different senders never block one another. The registry's lifecycle
// is tied to the receiver's session; idle senders are evicted once the
// sender count exceeds the configured bound.
type ReplayRegistry struct {
	mu         sync.RWMutex
	filters    map[string]*senderFilter
	windowSize uint64
	maxSenders int
	clock      atomic.Uint64 // monotonic activity counter for eviction order
}

type senderFilter struct {
	filter   *ReplayFilter
	lastSeen atomic.Uint64 // registry clock value at last observation
}

// NewReplayRegistry creates a registry whose filters use the given window
// size (0 selects DefaultReplayWindow).
func NewReplayRegistry(windowSize uint64) *ReplayRegistry {
	return &ReplayRegistry{
		filters:    make(map[string]*senderFilter),
		windowSize: windowSize,
		maxSenders: DefaultMaxSenders,
	}
}

// SetMaxSenders overrides the sender eviction bound. A value <= 0 disables
// eviction.
func (r *ReplayRegistry) SetMaxSenders(n int) {
	r.mu.Lock()
	r.maxSenders = n
	r.mu.Unlock()
}

// Observe routes a sequence observation to the filter for pubkey, creating
// the filter on first sight of the sender.
func (r *ReplayRegistry) Observe(pubkey []byte, seq uint64) error {
	key := string(pubkey)

	r.mu.RLock()
	sf := r.filters[key]
	r.mu.RUnlock()

	if sf == nil {
		r.mu.Lock()
		sf = r.filters[key]
		if sf == nil {
			sf = &senderFilter{filter: NewReplayFilter(r.windowSize)}
			sf.lastSeen.Store(r.clock.Add(1))
			r.filters[key] = sf
			r.evictLocked()
		}
		r.mu.Unlock()
	}

	sf.lastSeen.Store(r.clock.Add(1))
	return sf.filter.Observe(seq)
}

// Senders returns the number of tracked sender identities.
func (r *ReplayRegistry) Senders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}

// evictLocked drops the least recently active sender while the registry
// exceeds its bound. Caller holds r.mu.
func (r *ReplayRegistry) evictLocked() {
	if r.maxSenders <= 0 {
		return
	}
	for len(r.filters) > r.maxSenders {
		var oldestKey string
		var oldest uint64
		first := true
		for k, sf := range r.filters {
			if ts := sf.lastSeen.Load(); first || ts < oldest {
				oldestKey, oldest = k, ts
				first = false
			}
		}
		delete(r.filters, oldestKey)
	}
}
