// Package upstream is a client for the third-party scribe API: token
// issuance, sessions, segment transcription, consult notes and ask-AI.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oremus-labs/scribe-bridge/internal/metrics"
)

const (
	apiKeyHeader = "Heidi-Api-Key"

	defaultTimeout    = 30 * time.Second
	defaultAskTimeout = 60 * time.Second
	maxErrorBody      = 64 * 1024
)

// Credentials identify the bridge to the upstream API.
type Credentials struct {
	APIKey string
	Email  string
	UserID string
}

// Client calls the upstream API.
type Client struct {
	baseURL    string
	creds      Credentials
	client     *http.Client
	askTimeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the timeout for every call except ask-AI.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithAskTimeout sets the deadline applied to ask-AI calls.
func WithAskTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.askTimeout = d
		}
	}
}

// New creates a client rooted at baseURL.
func New(baseURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		client:     &http.Client{Timeout: defaultTimeout},
		askTimeout: defaultAskTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured upstream root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Credentials returns the configured credentials.
func (c *Client) Credentials() Credentials {
	return c.creds
}

type request struct {
	operation   string
	method      string
	path        string
	jwt         string
	apiKey      bool
	query       map[string]string
	body        io.Reader
	contentType string
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(r.query) > 0 {
		q := req.URL.Query()
		for k, v := range r.query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	if r.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+r.jwt)
	}
	if r.apiKey {
		req.Header.Set(apiKeyHeader, c.creds.APIKey)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	return req, nil
}

// send performs the request on hc and records metrics. The caller owns the body.
func send(hc *http.Client, req *http.Request, operation string) (*http.Response, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		metrics.ObserveUpstreamCall(operation, "error", time.Since(start))
		return nil, err
	}
	metrics.ObserveUpstreamCall(operation, strconv.Itoa(resp.StatusCode), time.Since(start))
	return resp, nil
}

// do sends r and returns the raw JSON body of a 2xx reply.
func (c *Client) do(ctx context.Context, r request) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	resp, err := send(c.client, req, r.operation)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", r.operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", r.operation, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to decode %s response: invalid JSON", r.operation)
	}
	return json.RawMessage(data), nil
}

func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}
