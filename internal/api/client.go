package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the HTTP client for a SecureFabric node.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      *RetryConfig
}

// Option configures the API client.
type Option func(*Client)

// WithToken sets the bearer token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetries sets the maximum number of retry attempts.
func WithRetries(retries int) Option {
	return func(c *Client) {
		c.retry.MaxRetries = retries
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
func WithRetryOn(statusCodes []int) Option {
	return func(c *Client) {
		codes := make(map[int]struct{}, len(statusCodes))
		for _, code := range statusCodes {
			codes[code] = struct{}{}
		}
		c.retry.RetryableOn = func(statusCode int) bool {
			_, ok := codes[statusCode]
			return ok
		}
	}
}

// New creates a new API client for the node at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("node endpoint URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the node endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs an authenticated JSON request against the node, retrying
// transient failures per the client's RetryConfig. body (if non-nil) is
// JSON-encoded; result (if non-nil) receives the decoded response body.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	url := c.baseURL + path

	var lastErr error
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &NetworkError{Err: err, URL: url, Attempt: attempt + 1}
			if attempt >= c.retry.MaxRetries {
				return lastErr
			}
			if err := c.retry.Wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := parseErrorResponse(resp)
			resp.Body.Close()
			if !c.retry.ShouldRetry(attempt, resp.StatusCode) {
				return apiErr
			}
			lastErr = apiErr
			if err := c.retry.Wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		if result != nil {
			err := json.NewDecoder(resp.Body).Decode(result)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		} else {
			resp.Body.Close()
		}
		return nil
	}
}

// setHeaders attaches the standard headers, including the bearer token when
// configured.
func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// parseErrorResponse converts a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var errResp struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil {
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    msg,
				RequestID:  errResp.RequestID,
			}
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(bytes.TrimSpace(body)),
	}
}
