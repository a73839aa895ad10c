package envelope

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"sync/atomic"
)

// Generator issues per-identity sequence numbers and random nonces. Each
// signing identity owns exactly one Generator; callers construct it
// explicitly and thread it through rather than sharing hidden global state.
// It is safe for concurrent use: no two callers ever observe the same
// sequence number.
type Generator struct {
	seq  atomic.Uint64 // last issued sequence number
	rand io.Reader
}

// NewGenerator creates a Generator whose first sequence number is 1 and
// whose nonces come from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewGeneratorAt creates a Generator that resumes after the given last
// issued sequence number. Useful for restoring a persisted identity and for
// deterministic tests.
func NewGeneratorAt(lastIssued uint64) *Generator {
	g := NewGenerator()
	g.seq.Store(lastIssued)
	return g
}

// NewGeneratorWithRand creates a Generator drawing nonces from r instead of
// crypto/rand. Intended for deterministic tests.
func NewGeneratorWithRand(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// NextSeq returns the next sequence number, starting at 1. Once the counter
// reaches 2^64-1 the identity is exhausted: every subsequent call fails
// with ErrSequenceExhausted and no value is ever handed out twice.
func (g *Generator) NextSeq() (uint64, error) {
	for {
		cur := g.seq.Load()
		if cur == math.MaxUint64 {
			return 0, ErrSequenceExhausted
		}
		if g.seq.CompareAndSwap(cur, cur+1) {
			return cur + 1, nil
		}
	}
}

// Seq returns the last issued sequence number, 0 if none has been issued.
func (g *Generator) Seq() uint64 {
	return g.seq.Load()
}

// NextNonce draws n cryptographically secure random bytes.
func (g *Generator) NextNonce(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: nonce length must be positive, got %d", ErrInvalidParameters, n)
	}
	nonce := make([]byte, n)
	if _, err := io.ReadFull(g.rand, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return nonce, nil
}
