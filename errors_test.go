package securefabric

import (
	"errors"
	"fmt"
	"testing"

	"github.com/securefabric/client-go/envelope"
	"github.com/securefabric/client-go/internal/api"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrMissingEndpoint", ErrMissingEndpoint},
		{"ErrClientClosed", ErrClientClosed},
		{"ErrUnauthorized", ErrUnauthorized},
		{"ErrTopicNotFound", ErrTopicNotFound},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrSendRejected", ErrSendRejected},
		{"ErrMalformedAAD", ErrMalformedAAD},
		{"ErrInvalidParameters", ErrInvalidParameters},
		{"ErrInvalidKey", ErrInvalidKey},
		{"ErrSignatureInvalid", ErrSignatureInvalid},
		{"ErrMessageIDMismatch", ErrMessageIDMismatch},
		{"ErrTamperDetected", ErrTamperDetected},
		{"ErrReplayDetected", ErrReplayDetected},
		{"ErrSequenceExhausted", ErrSequenceExhausted},
		{"ErrUnknownKeyVersion", ErrUnknownKeyVersion},
		{"ErrUntrustedSender", ErrUntrustedSender},
	}

	for _, s := range sentinels {
		if s.err == nil {
			t.Errorf("%s is nil", s.name)
			continue
		}
		wrapped := fmt.Errorf("context: %w", s.err)
		if !errors.Is(wrapped, s.err) {
			t.Errorf("errors.Is failed for wrapped %s", s.name)
		}
	}
}

// Validation sentinels re-exported at the root must be identical to the
// envelope package's, so callers can match errors from either layer.
func TestSentinelErrors_SharedWithEnvelope(t *testing.T) {
	pairs := []struct {
		name   string
		public error
		inner  error
	}{
		{"ErrMalformedAAD", ErrMalformedAAD, envelope.ErrMalformedAAD},
		{"ErrSignatureInvalid", ErrSignatureInvalid, envelope.ErrSignatureInvalid},
		{"ErrTamperDetected", ErrTamperDetected, envelope.ErrTamperDetected},
		{"ErrReplayDetected", ErrReplayDetected, envelope.ErrReplayDetected},
		{"ErrUnknownKeyVersion", ErrUnknownKeyVersion, envelope.ErrUnknownKeyVersion},
	}
	for _, p := range pairs {
		if !errors.Is(p.public, p.inner) {
			t.Errorf("%s does not match its envelope counterpart", p.name)
		}
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "full",
			err:  &APIError{StatusCode: 401, Message: "bad token", RequestID: "req-9"},
			want: "API error 401: bad token (request_id: req-9)",
		},
		{
			name: "no request id",
			err:  &APIError{StatusCode: 500, Message: "boom"},
			want: "API error 500: boom",
		},
		{
			name: "status only",
			err:  &APIError{StatusCode: 502},
			want: "API error 502",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{401, ErrUnauthorized},
		{404, ErrTopicNotFound},
		{429, ErrRateLimited},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.status}
		if !errors.Is(err, tt.target) {
			t.Errorf("APIError{%d} should match %v", tt.status, tt.target)
		}
	}
	if errors.Is(&APIError{StatusCode: 500}, ErrUnauthorized) {
		t.Error("APIError{500} should not match ErrUnauthorized")
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &NetworkError{Err: inner, URL: "http://node.example", Attempt: 2}
	if !errors.Is(err, inner) {
		t.Error("NetworkError should unwrap to its inner error")
	}
	if err.Error() != "network error: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if wrapError(nil) != nil {
			t.Error("wrapError(nil) should be nil")
		}
	})

	t.Run("api error", func(t *testing.T) {
		in := &api.APIError{StatusCode: 429, Message: "slow down", RequestID: "r-1"}
		out := wrapError(fmt.Errorf("send: %w", in))

		var pub *APIError
		if !errors.As(out, &pub) {
			t.Fatalf("wrapError() = %T, want *APIError", out)
		}
		if pub.StatusCode != 429 || pub.Message != "slow down" || pub.RequestID != "r-1" {
			t.Errorf("APIError = %+v", pub)
		}
		if !errors.Is(out, ErrRateLimited) {
			t.Error("wrapped 429 should match ErrRateLimited")
		}
	})

	t.Run("network error", func(t *testing.T) {
		inner := errors.New("timeout")
		in := &api.NetworkError{Err: inner, URL: "http://x", Attempt: 3}
		out := wrapError(in)

		var pub *NetworkError
		if !errors.As(out, &pub) {
			t.Fatalf("wrapError() = %T, want *NetworkError", out)
		}
		if pub.Attempt != 3 || !errors.Is(pub, inner) {
			t.Errorf("NetworkError = %+v", pub)
		}
	})

	t.Run("passthrough", func(t *testing.T) {
		plain := errors.New("something else")
		if wrapError(plain) != plain {
			t.Error("unrelated errors should pass through unchanged")
		}
	})
}

func TestSecureFabricError_Marker(t *testing.T) {
	var _ SecureFabricError = (*APIError)(nil)
	var _ SecureFabricError = (*NetworkError)(nil)

	var sfErr SecureFabricError
	if !errors.As(error(&APIError{StatusCode: 500}), &sfErr) {
		t.Error("APIError should satisfy SecureFabricError")
	}
}
