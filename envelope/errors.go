package envelope

import "errors"

var (
	// ErrMalformedAAD is returned when AAD bytes cannot be decoded, a
	// required field is missing, or the AAD disagrees with the envelope's
	// outer fields.
	ErrMalformedAAD = errors.New("malformed AAD")

	// ErrInvalidParameters is returned when a key, nonce, or tag has the
	// wrong length. The check runs before any cryptographic operation.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInvalidKey is returned when public or secret key bytes cannot be
	// decoded into a usable key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrSignatureInvalid is returned when envelope signature verification
	// fails.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrMessageIDMismatch is returned when an envelope's message ID does
	// not equal the ID recomputed from (pubkey, seq, nonce).
	ErrMessageIDMismatch = errors.New("message ID mismatch")

	// ErrTamperDetected is returned when AEAD tag verification fails during
	// decryption. No plaintext is released.
	ErrTamperDetected = errors.New("tamper detected: authentication tag verification failed")

	// ErrReplayDetected is returned when a sequence number was already
	// accepted or falls outside the receiver's trust window.
	ErrReplayDetected = errors.New("replay detected")

	// ErrSequenceExhausted is returned when a sender's sequence counter
	// overflows. The condition is permanent for that identity: no further
	// envelopes can be issued.
	ErrSequenceExhausted = errors.New("sequence counter exhausted")

	// ErrUnknownKeyVersion is returned when an envelope references a
	// symmetric key epoch the keyring does not hold.
	ErrUnknownKeyVersion = errors.New("unknown key version")

	// ErrUntrustedSender is returned when the envelope's public key does
	// not match the receiver's pinned key or key directory.
	ErrUntrustedSender = errors.New("untrusted sender public key")
)
