package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// AAD is the additional-authenticated-data record bound into the envelope
// signature (and into the AEAD tag when encryption is in use). Optional
// fields are omitted from the canonical form when empty.
type AAD struct {
	Topic       string `json:"topic"`
	TenantID    string `json:"tenant_id,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	KeyVersion  uint32 `json:"key_version"`
}

// Canonical serializes the AAD to its canonical byte form: compact JSON
// with fixed field order (topic, tenant_id, content_type, key_version),
// optional fields omitted when empty. Two records with identical field
// values always serialize to identical bytes.
func (a *AAD) Canonical() ([]byte, error) {
	if a.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrMalformedAAD)
	}
	for _, s := range []string{a.Topic, a.TenantID, a.ContentType} {
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("%w: invalid UTF-8 in field value", ErrMalformedAAD)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"topic":`)
	appendJSONString(&buf, a.Topic)
	if a.TenantID != "" {
		buf.WriteString(`,"tenant_id":`)
		appendJSONString(&buf, a.TenantID)
	}
	if a.ContentType != "" {
		buf.WriteString(`,"content_type":`)
		appendJSONString(&buf, a.ContentType)
	}
	buf.WriteString(`,"key_version":`)
	buf.WriteString(strconv.FormatUint(uint64(a.KeyVersion), 10))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeAAD parses AAD bytes. It is the exact inverse of [AAD.Canonical]
// for any canonical output, and rejects invalid UTF-8, missing required
// fields, unknown fields, and structurally invalid input with
// [ErrMalformedAAD].
func DecodeAAD(b []byte) (*AAD, error) {
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrMalformedAAD)
	}

	var raw struct {
		Topic       *string `json:"topic"`
		TenantID    *string `json:"tenant_id"`
		ContentType *string `json:"content_type"`
		KeyVersion  *uint32 `json:"key_version"`
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAAD, err)
	}
	// Reject trailing data after the JSON object.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedAAD)
	}

	if raw.Topic == nil || *raw.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrMalformedAAD)
	}
	if raw.KeyVersion == nil {
		return nil, fmt.Errorf("%w: key_version is required", ErrMalformedAAD)
	}

	aad := &AAD{
		Topic:      *raw.Topic,
		KeyVersion: *raw.KeyVersion,
	}
	if raw.TenantID != nil {
		aad.TenantID = *raw.TenantID
	}
	if raw.ContentType != nil {
		aad.ContentType = *raw.ContentType
	}
	return aad, nil
}

// appendJSONString writes s as a JSON string literal with minimal, fixed
// escaping (RFC 8259, no HTML escaping) so the encoding is identical across
// implementations.
func appendJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
