package api

import (
	"encoding/base64"
	"fmt"

	"github.com/securefabric/client-go/envelope"
)

// b64 is the wire encoding for binary envelope fields: base64url without
// padding.
var b64 = base64.RawURLEncoding

// WireEnvelope is the JSON representation of an envelope as the node API
// carries it. Binary fields are base64url-encoded without padding.
type WireEnvelope struct {
	Pubkey     string `json:"pubkey"`
	Sig        string `json:"sig"`
	Nonce      string `json:"nonce"`
	AAD        string `json:"aad"`
	Payload    string `json:"payload"`
	Seq        uint64 `json:"seq"`
	MsgID      string `json:"msg_id"`
	KeyVersion uint32 `json:"key_version"`
	Topic      string `json:"topic"`
}

// FromEnvelope converts a native envelope to its wire representation.
func FromEnvelope(env *envelope.Envelope) *WireEnvelope {
	return &WireEnvelope{
		Pubkey:     b64.EncodeToString(env.Pubkey),
		Sig:        b64.EncodeToString(env.Sig),
		Nonce:      b64.EncodeToString(env.Nonce),
		AAD:        b64.EncodeToString(env.AAD),
		Payload:    b64.EncodeToString(env.Payload),
		Seq:        env.Seq,
		MsgID:      env.MsgID,
		KeyVersion: env.KeyVersion,
		Topic:      env.Topic,
	}
}

// ToEnvelope decodes the wire representation back into a native envelope.
func (w *WireEnvelope) ToEnvelope() (*envelope.Envelope, error) {
	pubkey, err := b64.DecodeString(w.Pubkey)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey: %w", err)
	}
	sig, err := b64.DecodeString(w.Sig)
	if err != nil {
		return nil, fmt.Errorf("decode sig: %w", err)
	}
	nonce, err := b64.DecodeString(w.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	aad, err := b64.DecodeString(w.AAD)
	if err != nil {
		return nil, fmt.Errorf("decode aad: %w", err)
	}
	payload, err := b64.DecodeString(w.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &envelope.Envelope{
		Pubkey:     pubkey,
		Sig:        sig,
		Nonce:      nonce,
		AAD:        aad,
		Payload:    payload,
		Seq:        w.Seq,
		MsgID:      w.MsgID,
		KeyVersion: w.KeyVersion,
		Topic:      w.Topic,
	}, nil
}

// SendResponse is the node's acknowledgement of a published envelope.
type SendResponse struct {
	MsgID    string `json:"msg_id"`
	Accepted bool   `json:"accepted"`
}

// Stats holds node statistics as reported by the stats endpoint.
type Stats struct {
	Peers        int     `json:"peers"`
	Topics       int     `json:"topics"`
	MessagesSent uint64  `json:"messages_sent"`
	LatencyP95MS float64 `json:"latency_p95_ms"`
	Version      string  `json:"version"`
}
