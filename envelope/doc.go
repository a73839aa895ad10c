// Package envelope implements the SecureFabric message envelope protocol:
// construction, signing, optional end-to-end encryption, and validation of
// the authenticated message unit exchanged between fabric clients.
//
// # Algorithm Suite
//
// The protocol uses the following cryptographic algorithms:
//
//   - Ed25519 (RFC 8032): Digital signatures binding the canonical AAD and
//     the payload to the sender's identity key.
//
//   - XChaCha20-Poly1305 (and ChaCha20-Poly1305 with a 12-byte nonce):
//     Authenticated encryption with associated data for end-to-end payload
//     encryption under a symmetric key epoch.
//
//   - BLAKE3: Keyless hash deriving the deterministic message ID from
//     (pubkey, seq, nonce).
//
// # Envelope Layout
//
// An [Envelope] carries the sender's 32-byte Ed25519 public key, a 64-byte
// signature over aad‖payload, a per-message nonce, the canonical AAD bytes,
// the payload (plaintext, or ciphertext‖tag when KeyVersion > 0), a
// per-sender monotonic sequence number starting at 1, the derived message
// ID, the symmetric key epoch, and the routing topic.
//
// The signature covers exactly aad‖payload. Pubkey, nonce, seq, and msg_id
// are NOT covered: receivers must recompute the message ID and must not
// trust those fields until the envelope has been validated.
//
// # Validation Order
//
// [Disassembler.Open] performs checks in a fixed order: message-ID
// recomputation, sender trust, AAD decode and binding, signature
// verification, replay-window update, and finally decryption. The stateless
// checks run before the replay window is touched, so a forged envelope can
// never corrupt the receiver's replay state for an honest sender.
//
// # Nonce Uniqueness
//
// Nonces MUST be unique per (key_version, pubkey) when encryption is in
// use. Nonce reuse under the same key completely breaks the confidentiality
// and integrity of the cipher. [Generator.NextNonce] draws nonces from a
// CSPRNG; the 24-byte XChaCha nonce space makes random collision
// negligible.
//
// # Concurrency
//
// [Generator] is safe for concurrent senders on the same identity: no two
// callers ever observe the same sequence number. [ReplayRegistry] holds one
// independently locked [ReplayFilter] per sender, so receivers processing
// many senders concurrently never block one another across senders. All
// other operations in this package are pure.
package envelope
