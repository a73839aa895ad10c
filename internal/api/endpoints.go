package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Send publishes a wire envelope to the node.
func (c *Client) Send(ctx context.Context, env *WireEnvelope) (*SendResponse, error) {
	var result SendResponse
	if err := c.Do(ctx, http.MethodPost, "/v1/send", env, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchMessages returns the envelopes published on a topic after the given
// sequence number. afterSeq of 0 fetches from the beginning of the node's
// retained window.
func (c *Client) FetchMessages(ctx context.Context, topic string, afterSeq uint64) ([]WireEnvelope, error) {
	path := fmt.Sprintf("/v1/topics/%s/messages", url.PathEscape(topic))
	if afterSeq > 0 {
		path += "?after_seq=" + strconv.FormatUint(afterSeq, 10)
	}
	var result []WireEnvelope
	if err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetStats retrieves node statistics.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var result Stats
	if err := c.Do(ctx, http.MethodGet, "/v1/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OpenStream opens an SSE connection carrying the topic's envelopes as they
// arrive. The caller owns the response body and must close it.
func (c *Client) OpenStream(ctx context.Context, topic string) (*http.Response, error) {
	path := fmt.Sprintf("/v1/topics/%s/stream", url.PathEscape(topic))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The client's timeout covers the whole request body; a stream stays
	// open indefinitely, so strip it for this request. Cancellation is the
	// caller's context.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err, URL: c.baseURL + path, Attempt: 1}
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseErrorResponse(resp)
	}
	return resp, nil
}
