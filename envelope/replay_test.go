package envelope

import (
	"errors"
	"sync"
	"testing"
)

// observeAll runs a scripted counter sequence through a fresh filter and
// returns the accept/reject outcomes.
func observeAll(f *ReplayFilter, counters []uint64) []bool {
	out := make([]bool, len(counters))
	for i, c := range counters {
		out[i] = f.Observe(c) == nil
	}
	return out
}

func TestReplayFilter_Scripted(t *testing.T) {
	tests := []struct {
		name     string
		window   uint64
		counters []uint64
		expected []bool
	}{
		{
			"in-order then duplicates and window shift",
			8,
			[]uint64{1, 2, 3, 2, 10, 10, 9},
			[]bool{true, true, true, false, true, false, true},
		},
		{
			"strictly increasing",
			8,
			[]uint64{1, 2, 3, 4, 5},
			[]bool{true, true, true, true, true},
		},
		{
			"out of order within window",
			8,
			[]uint64{5, 3, 4, 1, 2},
			[]bool{true, true, true, true, true},
		},
		{
			"duplicate after reorder",
			8,
			[]uint64{5, 3, 3},
			[]bool{true, true, false},
		},
		{
			"too old",
			4,
			[]uint64{10, 6},
			[]bool{true, false},
		},
		{
			"oldest still inside window",
			4,
			[]uint64{10, 7},
			[]bool{true, true},
		},
		{
			"zero always rejected",
			8,
			[]uint64{0, 1, 0},
			[]bool{false, true, false},
		},
		{
			"jump beyond window clears state",
			8,
			[]uint64{1, 2, 3, 1000, 999, 992, 3},
			[]bool{true, true, true, true, true, false, false},
		},
		{
			"first seq can exceed one",
			8,
			[]uint64{500, 499, 500},
			[]bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := observeAll(NewReplayFilter(tt.window), tt.counters)
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("counter[%d]=%d: accept = %v, want %v",
						i, tt.counters[i], got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestReplayFilter_WindowBoundary(t *testing.T) {
	const w = 128
	f := NewReplayFilter(w)

	if err := f.Observe(1000); err != nil {
		t.Fatal(err)
	}
	// diff = w-1 is the oldest acceptable position.
	if err := f.Observe(1000 - (w - 1)); err != nil {
		t.Errorf("seq at window edge rejected: %v", err)
	}
	// diff = w is outside the trust window.
	if err := f.Observe(1000 - w); !errors.Is(err, ErrReplayDetected) {
		t.Errorf("seq one past window accepted, err = %v", err)
	}
}

func TestReplayFilter_LargeWindowMultiWordShift(t *testing.T) {
	// Windows wider than 64 bits span multiple words; shifting across word
	// boundaries must preserve seen marks.
	f := NewReplayFilter(256)

	for seq := uint64(1); seq <= 100; seq++ {
		if err := f.Observe(seq); err != nil {
			t.Fatalf("Observe(%d) = %v", seq, err)
		}
	}
	// Advance highest by 70 (crosses a word boundary).
	if err := f.Observe(170); err != nil {
		t.Fatal(err)
	}
	// Everything 1..100 is still inside the 256-wide window and seen.
	for seq := uint64(1); seq <= 100; seq++ {
		if err := f.Observe(seq); !errors.Is(err, ErrReplayDetected) {
			t.Fatalf("Observe(%d) after shift: expected ErrReplayDetected, got %v", seq, err)
		}
	}
	// Unseen slots inside the window still accept.
	if err := f.Observe(140); err != nil {
		t.Errorf("unseen seq 140 rejected: %v", err)
	}
}

func TestReplayFilter_DefaultWindow(t *testing.T) {
	f := NewReplayFilter(0)
	if f.WindowSize() != DefaultReplayWindow {
		t.Errorf("WindowSize() = %d, want %d", f.WindowSize(), DefaultReplayWindow)
	}
}

func TestReplayRegistry_PerSenderIsolation(t *testing.T) {
	r := NewReplayRegistry(8)
	alice := []byte("alice-pubkey....................")
	bob := []byte("bob-pubkey......................")

	if err := r.Observe(alice, 1); err != nil {
		t.Fatal(err)
	}
	// Bob's counter space is independent of Alice's.
	if err := r.Observe(bob, 1); err != nil {
		t.Errorf("bob seq 1 rejected: %v", err)
	}
	if err := r.Observe(alice, 1); !errors.Is(err, ErrReplayDetected) {
		t.Errorf("alice replay accepted, err = %v", err)
	}
	if r.Senders() != 2 {
		t.Errorf("Senders() = %d, want 2", r.Senders())
	}
}

func TestReplayRegistry_Concurrent(t *testing.T) {
	r := NewReplayRegistry(DefaultReplayWindow)

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			pubkey := make([]byte, PublicKeySize)
			pubkey[0] = byte(sender)
			for seq := uint64(1); seq <= 500; seq++ {
				if err := r.Observe(pubkey, seq); err != nil {
					t.Errorf("sender %d seq %d: %v", sender, seq, err)
					return
				}
			}
		}(s)
	}
	wg.Wait()

	if r.Senders() != 8 {
		t.Errorf("Senders() = %d, want 8", r.Senders())
	}
}

func TestReplayRegistry_Eviction(t *testing.T) {
	r := NewReplayRegistry(8)
	r.SetMaxSenders(4)

	for s := 0; s < 10; s++ {
		pubkey := make([]byte, PublicKeySize)
		pubkey[0] = byte(s)
		if err := r.Observe(pubkey, 1); err != nil {
			t.Fatal(err)
		}
	}

	if r.Senders() > 4 {
		t.Errorf("Senders() = %d after eviction, want <= 4", r.Senders())
	}

	// An evicted sender starts a fresh window: its old seq is accepted
	// again. That is the documented memory/strictness trade-off.
	evicted := make([]byte, PublicKeySize)
	if err := r.Observe(evicted, 1); err != nil {
		t.Errorf("evicted sender not given a fresh filter: %v", err)
	}
}
