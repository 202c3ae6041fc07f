package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"skin-monitor/internal/stories/pipeline"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodySize    = 16 << 20
)

// Client performs marketplace requests with a bounded timeout and classifies
// every expected failure as pipeline.ErrTransientFetch.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

type Option func(*Client)

func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithTransport replaces the HTTP transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoJSON sends req and decodes a 2xx JSON body into v. Transport errors,
// timeouts, non-2xx statuses and malformed bodies are transient.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, v any) error {
	req = req.WithContext(ctx)
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.Transient(fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return pipeline.Transient(fmt.Errorf("%s %s: status %d", req.Method, req.URL.Host, resp.StatusCode))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v); err != nil {
		return pipeline.Transient(fmt.Errorf("decode %s response: %w", req.URL.Host, err))
	}
	return nil
}
