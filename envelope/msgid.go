package envelope

import (
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// DeriveMessageID computes the deterministic message identifier
// hex(BLAKE3(pubkey ‖ LE64(seq) ‖ nonce)), lowercase. It is a pure
// function of its inputs: the ID is an integrity check on the
// (pubkey, seq, nonce) triple, not proof of payload authenticity.
func DeriveMessageID(pubkey []byte, seq uint64, nonce []byte) string {
	h := blake3.New(32, nil)
	h.Write(pubkey)
	var seqLE [8]byte
	binary.LittleEndian.PutUint64(seqLE[:], seq)
	h.Write(seqLE[:])
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil))
}
