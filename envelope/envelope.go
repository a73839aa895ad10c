package envelope

import (
	"bytes"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"
)

// Envelope is the complete signed (and optionally encrypted) message unit
// exchanged between fabric clients. It is constructed once at send time and
// immutable thereafter.
type Envelope struct {
	// Pubkey is the sender's 32-byte Ed25519 public key.
	Pubkey []byte
	// Sig is the 64-byte Ed25519 signature over AAD‖Payload.
	Sig []byte
	// Nonce is the per-message randomness, 24 bytes (XChaCha) as assembled.
	Nonce []byte
	// AAD is the canonical serialization of the AAD record.
	AAD []byte
	// Payload is the plaintext, or ciphertext‖tag when KeyVersion > 0.
	Payload []byte
	// Seq is the per-sender monotonically increasing counter, starting at 1.
	Seq uint64
	// MsgID equals hex(BLAKE3(pubkey‖LE64(seq)‖nonce)).
	MsgID string
	// KeyVersion is the symmetric key epoch; 0 means no end-to-end encryption.
	KeyVersion uint32
	// Topic is the routing label, also carried inside AAD for signature binding.
	Topic string
}

// Assembler builds outbound envelopes for one signing identity. Safe for
// concurrent use.
type Assembler struct {
	keypair     *Keypair
	gen         *Generator
	keyring     *Keyring
	tenantID    string
	contentType string
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithGenerator supplies the sequence/nonce generator. Defaults to a fresh
// NewGenerator.
func WithGenerator(g *Generator) AssemblerOption {
	return func(a *Assembler) { a.gen = g }
}

// WithKeyring supplies the symmetric key epochs for end-to-end encryption.
func WithKeyring(k *Keyring) AssemblerOption {
	return func(a *Assembler) { a.keyring = k }
}

// WithDefaultTenantID sets the tenant carried in AAD unless overridden per
// message.
func WithDefaultTenantID(tenant string) AssemblerOption {
	return func(a *Assembler) { a.tenantID = tenant }
}

// WithDefaultContentType sets the content type carried in AAD unless
// overridden per message.
func WithDefaultContentType(ct string) AssemblerOption {
	return func(a *Assembler) { a.contentType = ct }
}

// NewAssembler creates an Assembler signing with the given keypair.
func NewAssembler(kp *Keypair, opts ...AssemblerOption) *Assembler {
	a := &Assembler{keypair: kp}
	for _, opt := range opts {
		opt(a)
	}
	if a.gen == nil {
		a.gen = NewGenerator()
	}
	return a
}

// assembleConfig holds per-message overrides.
type assembleConfig struct {
	tenantID    string
	contentType string
	keyVersion  *uint32
}

// AssembleOption overrides AAD fields or the key epoch for one envelope.
type AssembleOption func(*assembleConfig)

// WithTenantID sets the tenant for this envelope.
func WithTenantID(tenant string) AssembleOption {
	return func(c *assembleConfig) { c.tenantID = tenant }
}

// WithContentType sets the content type for this envelope.
func WithContentType(ct string) AssembleOption {
	return func(c *assembleConfig) { c.contentType = ct }
}

// WithKeyVersion selects the symmetric key epoch for this envelope,
// overriding the keyring's active version. 0 forces plaintext.
func WithKeyVersion(version uint32) AssembleOption {
	return func(c *assembleConfig) { c.keyVersion = &version }
}

// Assemble builds a fully populated envelope for topic and payload.
// Calling twice produces envelopes with strictly increasing Seq. When the
// effective key version is > 0 the payload is encrypted before signing, so
// the signature covers the wire bytes.
func (a *Assembler) Assemble(topic string, payload []byte, opts ...AssembleOption) (*Envelope, error) {
	cfg := &assembleConfig{
		tenantID:    a.tenantID,
		contentType: a.contentType,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	keyVersion := uint32(0)
	if cfg.keyVersion != nil {
		keyVersion = *cfg.keyVersion
	} else if a.keyring != nil {
		keyVersion = a.keyring.Active()
	}

	aad := &AAD{
		Topic:       topic,
		TenantID:    cfg.tenantID,
		ContentType: cfg.contentType,
		KeyVersion:  keyVersion,
	}
	aadBytes, err := aad.Canonical()
	if err != nil {
		return nil, err
	}

	seq, err := a.gen.NextSeq()
	if err != nil {
		return nil, err
	}
	nonce, err := a.gen.NextNonce(NonceSizeX)
	if err != nil {
		return nil, err
	}

	wirePayload := payload
	if keyVersion > 0 {
		if a.keyring == nil {
			return nil, fmt.Errorf("%w: version %d (no keyring)", ErrUnknownKeyVersion, keyVersion)
		}
		key, ok := a.keyring.Key(keyVersion)
		if !ok {
			return nil, fmt.Errorf("%w: version %d", ErrUnknownKeyVersion, keyVersion)
		}
		ciphertext, tag, err := Encrypt(key, nonce, aadBytes, payload)
		if err != nil {
			return nil, err
		}
		wirePayload = append(ciphertext, tag...)
	}

	return &Envelope{
		Pubkey:     a.keypair.PublicKey,
		Sig:        Sign(a.keypair.PrivateKey, aadBytes, wirePayload),
		Nonce:      nonce,
		AAD:        aadBytes,
		Payload:    wirePayload,
		Seq:        seq,
		MsgID:      DeriveMessageID(a.keypair.PublicKey, seq, nonce),
		KeyVersion: keyVersion,
		Topic:      topic,
	}, nil
}

// KeyDirectory reports which sender public keys a receiver trusts.
type KeyDirectory interface {
	Trusted(pubkey []byte) bool
}

// Disassembler validates inbound envelopes and recovers their payloads,
// holding the receiver's replay state. Safe for concurrent use.
type Disassembler struct {
	keyring   *Keyring
	registry  *ReplayRegistry
	pinned    ed25519.PublicKey
	directory KeyDirectory

	windowSize uint64
}

// DisassemblerOption configures a Disassembler.
type DisassemblerOption func(*Disassembler)

// WithPinnedKey restricts the disassembler to envelopes from a single
// sender public key; any other sender fails with ErrUntrustedSender.
func WithPinnedKey(pub ed25519.PublicKey) DisassemblerOption {
	return func(d *Disassembler) { d.pinned = pub }
}

// WithDirectory restricts accepted senders to those the directory trusts.
func WithDirectory(dir KeyDirectory) DisassemblerOption {
	return func(d *Disassembler) { d.directory = dir }
}

// WithReplayWindow sets the per-sender replay window size (0 selects
// DefaultReplayWindow).
func WithReplayWindow(size uint64) DisassemblerOption {
	return func(d *Disassembler) { d.windowSize = size }
}

// WithDecryptionKeyring supplies the symmetric key epochs used to decrypt
// envelopes with KeyVersion > 0.
func WithDecryptionKeyring(k *Keyring) DisassemblerOption {
	return func(d *Disassembler) { d.keyring = k }
}

// NewDisassembler creates a Disassembler with fresh replay state.
func NewDisassembler(opts ...DisassemblerOption) *Disassembler {
	d := &Disassembler{}
	for _, opt := range opts {
		opt(d)
	}
	d.registry = NewReplayRegistry(d.windowSize)
	return d
}

// Open validates env and returns its plaintext payload.
//
// Checks run in a fixed order: message-ID recomputation, sender trust, AAD
// decode and binding against the outer topic/key_version, signature
// verification, replay observation, then decryption. The replay window is
// mutated only after the stateless checks pass, so forged envelopes never
// advance an honest sender's window.
func (d *Disassembler) Open(env *Envelope) ([]byte, error) {
	payload, _, err := d.OpenWithAAD(env)
	return payload, err
}

// OpenWithAAD is Open, additionally returning the decoded authenticated
// AAD so callers don't have to parse it a second time.
func (d *Disassembler) OpenWithAAD(env *Envelope) ([]byte, *AAD, error) {
	if env.MsgID != DeriveMessageID(env.Pubkey, env.Seq, env.Nonce) {
		return nil, nil, ErrMessageIDMismatch
	}

	if d.pinned != nil && !bytes.Equal(d.pinned, env.Pubkey) {
		return nil, nil, ErrUntrustedSender
	}
	if d.directory != nil && !d.directory.Trusted(env.Pubkey) {
		return nil, nil, ErrUntrustedSender
	}

	aad, err := DecodeAAD(env.AAD)
	if err != nil {
		return nil, nil, err
	}
	// The outer topic and key_version are not signature-covered; they must
	// agree with the authenticated AAD copy.
	if aad.Topic != env.Topic {
		return nil, nil, fmt.Errorf("%w: topic does not match AAD", ErrMalformedAAD)
	}
	if aad.KeyVersion != env.KeyVersion {
		return nil, nil, fmt.Errorf("%w: key_version does not match AAD", ErrMalformedAAD)
	}

	if !Verify(env.Pubkey, env.AAD, env.Payload, env.Sig) {
		return nil, nil, ErrSignatureInvalid
	}

	if err := d.registry.Observe(env.Pubkey, env.Seq); err != nil {
		return nil, nil, err
	}

	if env.KeyVersion == 0 {
		return env.Payload, aad, nil
	}

	if d.keyring == nil {
		return nil, nil, fmt.Errorf("%w: version %d (no keyring)", ErrUnknownKeyVersion, env.KeyVersion)
	}
	key, ok := d.keyring.Key(env.KeyVersion)
	if !ok {
		return nil, nil, fmt.Errorf("%w: version %d", ErrUnknownKeyVersion, env.KeyVersion)
	}
	if len(env.Payload) < TagSize {
		return nil, nil, ErrTamperDetected
	}
	split := len(env.Payload) - TagSize
	plaintext, err := Decrypt(key, env.Nonce, env.AAD, env.Payload[:split], env.Payload[split:])
	if err != nil {
		return nil, nil, err
	}
	return plaintext, aad, nil
}
