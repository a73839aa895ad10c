package securefabric

import (
	"errors"
	"fmt"

	"github.com/securefabric/client-go/envelope"
	"github.com/securefabric/client-go/internal/api"
)

// Protocol sentinels re-exported from the envelope package so callers can
// check errors.Is against this package alone.
var (
	// ErrMalformedAAD is returned when AAD bytes cannot be decoded or do
	// not match the envelope's outer fields.
	ErrMalformedAAD = envelope.ErrMalformedAAD

	// ErrInvalidParameters is returned for structurally invalid inputs.
	ErrInvalidParameters = envelope.ErrInvalidParameters

	// ErrInvalidKey is returned when key material has the wrong size or form.
	ErrInvalidKey = envelope.ErrInvalidKey

	// ErrSignatureInvalid is returned when envelope signature verification fails.
	ErrSignatureInvalid = envelope.ErrSignatureInvalid

	// ErrMessageIDMismatch is returned when an envelope's message ID does not
	// match its contents.
	ErrMessageIDMismatch = envelope.ErrMessageIDMismatch

	// ErrTamperDetected is returned when authenticated decryption fails.
	ErrTamperDetected = envelope.ErrTamperDetected

	// ErrReplayDetected is returned when an envelope's sequence number was
	// already observed.
	ErrReplayDetected = envelope.ErrReplayDetected

	// ErrSequenceExhausted is returned when a sender's counter is spent.
	ErrSequenceExhausted = envelope.ErrSequenceExhausted

	// ErrUnknownKeyVersion is returned when no key is registered for an
	// envelope's key version.
	ErrUnknownKeyVersion = envelope.ErrUnknownKeyVersion

	// ErrUntrustedSender is returned when an envelope's sender key is not
	// trusted by the receiver.
	ErrUntrustedSender = envelope.ErrUntrustedSender
)

// Transport sentinels.
var (
	// ErrMissingEndpoint is returned when no node endpoint is provided.
	ErrMissingEndpoint = errors.New("node endpoint is required")

	// ErrClientClosed is returned when operations are attempted on a closed
	// client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrUnauthorized is returned when the bearer token is invalid or
	// expired.
	ErrUnauthorized = errors.New("invalid or expired bearer token")

	// ErrTopicNotFound is returned when the topic does not exist on the node.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrRateLimited is returned when the node's rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSendRejected is returned when the node refuses a published envelope.
	ErrSendRejected = errors.New("send rejected by node")
)

// SecureFabricError is implemented by all SDK errors.
type SecureFabricError interface {
	error
	SecureFabricError() // marker method
}

// APIError represents an HTTP error from the SecureFabric node API.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string // if returned by the node
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		if e.Message != "" {
			return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
		}
		return fmt.Sprintf("API error %d (request_id: %s)", e.StatusCode, e.RequestID)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// SecureFabricError implements the SecureFabricError interface.
func (e *APIError) SecureFabricError() {}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 401:
		return target == ErrUnauthorized
	case 404:
		return target == ErrTopicNotFound
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SecureFabricError implements the SecureFabricError interface.
func (e *NetworkError) SecureFabricError() {}

// wrapError converts internal API errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			RequestID:  apiErr.RequestID,
		}
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return &NetworkError{
			Err:     netErr.Err,
			URL:     netErr.URL,
			Attempt: netErr.Attempt,
		}
	}

	return err
}
