package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cloudflare/circl/sign/ed25519"
)

// randReader is the random source used for key generation.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

// Keypair is an Ed25519 signing identity.
type Keypair struct {
	// PublicKey is the raw 32-byte Ed25519 public key.
	PublicKey ed25519.PublicKey
	// PrivateKey is the Ed25519 private key (seed plus public half).
	PrivateKey ed25519.PrivateKey
	// PublicKeyHex is the public key encoded as lowercase hex.
	PublicKeyHex string
}

// GenerateKeypair creates a new random Ed25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	r := randReader
	if r == nil {
		r = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("read key seed: %w", err)
	}
	return KeypairFromSeed(seed)
}

// KeypairFromSeed derives a keypair from a 32-byte seed. The derivation is
// deterministic: the same seed always yields the same keys.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKey, SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{
		PublicKey:    pub,
		PrivateKey:   priv,
		PublicKeyHex: hex.EncodeToString(pub),
	}, nil
}

// KeypairFromFile loads a keypair from a file holding exactly a 32-byte seed.
func KeypairFromFile(path string) (*Keypair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	if len(b) != SeedSize {
		return nil, fmt.Errorf("%w: key file must hold %d bytes, got %d", ErrInvalidKey, SeedSize, len(b))
	}
	return KeypairFromSeed(b)
}

// PublicKeyFromBytes validates and copies raw public key bytes.
func PublicKeyFromBytes(b []byte) (ed25519.PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKey, PublicKeySize, len(b))
	}
	pub := make(ed25519.PublicKey, PublicKeySize)
	copy(pub, b)
	return pub, nil
}

// PublicKeyFromHex decodes a hex-encoded public key.
func PublicKeyFromHex(s string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return PublicKeyFromBytes(b)
}
