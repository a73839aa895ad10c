package envelope

import (
	"github.com/cloudflare/circl/sign/ed25519"
)

// Sign computes the Ed25519 signature over aad‖payload.
func Sign(priv ed25519.PrivateKey, aad, payload []byte) []byte {
	msg := make([]byte, 0, len(aad)+len(payload))
	msg = append(msg, aad...)
	msg = append(msg, payload...)
	return ed25519.Sign(priv, msg)
}

// Verify reports whether sig is a valid Ed25519 signature by pub over
// aad‖payload. Verification is strict: malformed inputs (signature not
// exactly 64 bytes, public key not exactly 32 bytes) and structurally
// invalid signatures yield false, never a panic.
func Verify(pub, aad, payload, sig []byte) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(aad)+len(payload))
	msg = append(msg, aad...)
	msg = append(msg, payload...)
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}
