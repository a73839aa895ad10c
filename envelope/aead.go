package envelope

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// newAEAD selects the cipher variant by nonce length: XChaCha20-Poly1305
// for a 24-byte nonce, ChaCha20-Poly1305 for a 12-byte nonce.
func newAEAD(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidParameters, KeySize, len(key))
	}
	switch len(nonce) {
	case NonceSizeX:
		return chacha20poly1305.NewX(key)
	case NonceSize:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: nonce must be %d or %d bytes, got %d",
			ErrInvalidParameters, NonceSize, NonceSizeX, len(nonce))
	}
}

// Encrypt encrypts plaintext with associated data, returning the ciphertext
// and the 16-byte authentication tag separately. The ciphertext length
// equals the plaintext length. Key and nonce lengths are validated before
// any cryptographic operation runs.
func Encrypt(key, nonce, aad, plaintext []byte) (ciphertext, tag []byte, err error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, aad)
	return sealed[:len(plaintext)], sealed[len(plaintext):], nil
}

// Decrypt authenticates and decrypts ciphertext. The tag is verified before
// any plaintext is returned: on tag failure the result is ErrTamperDetected
// and no bytes are released.
func Decrypt(key, nonce, aad, ciphertext, tag []byte) ([]byte, error) {
	if len(tag) != TagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes, got %d", ErrInvalidParameters, TagSize, len(tag))
	}
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrTamperDetected
	}
	return plaintext, nil
}
