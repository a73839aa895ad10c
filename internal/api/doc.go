// Package api provides HTTP client functionality for communicating with a
// SecureFabric node. It handles bearer-token authentication, wire-envelope
// serialization, and automatic retry logic with exponential backoff for
// transient failures.
//
// # Client Creation
//
// Clients are created with [New] using the functional options pattern. A node
// endpoint URL is required; the bearer token is sent via the Authorization
// header on every request.
//
// # Wire Format
//
// Envelopes travel as JSON objects whose binary fields (public key,
// signature, nonce, AAD, payload) are base64url-encoded without padding.
// [WireEnvelope] holds that representation and converts to/from the
// envelope package's native form.
//
// # Retry Behavior
//
// The client automatically retries failed requests with exponential backoff
// and jitter. By default, requests are retried up to 3 times for these HTTP
// status codes:
//
//   - 408 Request Timeout
//   - 429 Too Many Requests
//   - 500 Internal Server Error
//   - 502 Bad Gateway
//   - 503 Service Unavailable
//   - 504 Gateway Timeout
//
// Configure retry behavior with [WithRetries], [WithRetryOn], and
// [RetryConfig].
//
// # Error Handling
//
// The package defines sentinel errors for common API error conditions:
//
//   - [ErrUnauthorized]: Invalid or expired bearer token (401).
//   - [ErrTopicNotFound]: Topic does not exist on the node (404).
//   - [ErrRateLimited]: Rate limit exceeded (429).
//
// Use errors.Is to check for specific error types:
//
//	if errors.Is(err, api.ErrTopicNotFound) {
//	    // Handle missing topic
//	}
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use. Multiple goroutines may call
// methods on a single Client simultaneously.
package api
