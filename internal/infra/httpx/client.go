// Package httpx is the JSON-over-HTTP plumbing shared by the collaborator adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/errs"
)

const maxBodyBytes = 1 << 20

type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsTransient reports statuses worth retrying: server errors, throttling and request timeouts.
func (r *Response) IsTransient() bool {
	switch r.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return r.StatusCode >= 500
}

// Client sends JSON requests and records latency per collaborator.
type Client struct {
	http         *http.Client
	collaborator string
	headers      map[string]string
}

func NewClient(collaborator string, timeout time.Duration, headers map[string]string) *Client {
	return &Client{
		http:         &http.Client{Timeout: timeout},
		collaborator: collaborator,
		headers:      headers,
	}
}

// Do returns a transport error only when no response was read. Non-2xx
// responses come back as a Response for the caller to classify.
func (c *Client) Do(ctx context.Context, method, url string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errs.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(start, "error")
		return nil, errs.Wrapf(err, "%s request failed", c.collaborator)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe(start, "error")
		return nil, errs.Wrapf(err, "failed to read %s response", c.collaborator)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: data}
	switch {
	case out.IsSuccess():
		c.observe(start, "ok")
	case out.IsTransient():
		c.observe(start, "transient")
	default:
		c.observe(start, "rejected")
	}
	return out, nil
}

func (c *Client) observe(start time.Time, result string) {
	metrics.CollaboratorDuration.WithLabelValues(c.collaborator, result).Observe(time.Since(start).Seconds())
}

// Preview trims a response body for log lines.
func Preview(body []byte) string {
	const limit = 500
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
