package envelope

const (
	// PublicKeySize is the size of an Ed25519 public key in bytes.
	PublicKeySize = 32
	// SeedSize is the size of an Ed25519 private key seed in bytes.
	SeedSize = 32
	// SignatureSize is the size of an Ed25519 signature in bytes.
	SignatureSize = 64

	// KeySize is the size of a symmetric AEAD key in bytes.
	KeySize = 32
	// NonceSize is the size of a ChaCha20-Poly1305 nonce in bytes.
	NonceSize = 12
	// NonceSizeX is the size of an XChaCha20-Poly1305 nonce in bytes.
	// Envelopes are assembled with XChaCha nonces.
	NonceSizeX = 24
	// TagSize is the size of a Poly1305 authentication tag in bytes.
	TagSize = 16

	// MessageIDSize is the length of a hex-encoded message ID: a 32-byte
	// BLAKE3 digest.
	MessageIDSize = 64

	// DefaultReplayWindow is the default sliding-window size of a
	// ReplayFilter, in sequence numbers.
	DefaultReplayWindow = 1024
)
