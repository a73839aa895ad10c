package envelope

import (
	"fmt"
	"sync"
)

// Keyring holds the symmetric key epochs available for end-to-end payload
// encryption, keyed by key version. Version 0 is reserved: it means "no
// encryption" and can never hold a key. Methods are safe for concurrent use.
type Keyring struct {
	mu     sync.RWMutex
	keys   map[uint32][]byte
	active uint32
}

// NewKeyring creates an empty keyring with no active version: envelopes
// assembled against it are sent in plaintext until SetActive is called.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[uint32][]byte)}
}

// Add registers a 32-byte key under the given version. The key bytes are
// copied.
func (k *Keyring) Add(version uint32, key []byte) error {
	if version == 0 {
		return fmt.Errorf("%w: key version 0 is reserved for plaintext", ErrInvalidParameters)
	}
	if len(key) != KeySize {
		return fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidParameters, KeySize, len(key))
	}
	cp := make([]byte, KeySize)
	copy(cp, key)
	k.mu.Lock()
	k.keys[version] = cp
	k.mu.Unlock()
	return nil
}

// Key returns the key for a version, or false if the epoch is unknown.
func (k *Keyring) Key(version uint32) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[version]
	return key, ok
}

// SetActive selects the key epoch used for newly assembled envelopes. The
// version must already be registered.
func (k *Keyring) SetActive(version uint32) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if version != 0 {
		if _, ok := k.keys[version]; !ok {
			return fmt.Errorf("%w: version %d", ErrUnknownKeyVersion, version)
		}
	}
	k.active = version
	return nil
}

// Active returns the key version used for newly assembled envelopes,
// 0 when encryption is off.
func (k *Keyring) Active() uint32 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active
}
