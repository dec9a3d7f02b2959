// Package transport is the HTTP glue shared by the provider backends: one
// client type that posts JSON, returns either a buffered body or a live
// stream, and classifies every failure before it leaves the package.
package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/wirebird/tern/pkg/slogx"
	"github.com/wirebird/tern/provider"
)

// Client posts requests to one backend. The provider name travels with it so
// every classified error names who failed.
type Client struct {
	name    string
	baseURL string
	httpc   *http.Client
	headers map[string]string
}

// NewClient builds a client for one backend. The headers are sent on every
// request; httpc may be nil, in which case DefaultHTTPClient is used.
func NewClient(name, baseURL string, httpc *http.Client, headers map[string]string) *Client {
	if httpc == nil {
		httpc = DefaultHTTPClient(0)
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		headers: headers,
	}
}

// PostJSON posts payload to path and returns the buffered response body.
// Non-2xx responses and transport failures come back as classified errors.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.FromErr(c.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("backend rejected request",
			slog.String("provider", c.name),
			slog.Int("status", resp.StatusCode),
			slogx.ByteString("body", truncate(body)))
		return nil, provider.FromStatus(c.name, resp.StatusCode, body)
	}
	return body, nil
}

// PostStream posts payload to path and returns the live response body for
// incremental decoding. The caller owns closing it. A non-2xx response is
// drained, classified, and returned as an error instead.
func (c *Client) PostStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, provider.FromStatus(c.name, resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, provider.Errf(c.name, provider.KindBadRequest, "encoding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, provider.Errf(c.name, provider.KindConfig, "building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, provider.FromErr(c.name, err)
	}
	return resp, nil
}

// DefaultHTTPClient returns the client the backends use when none is
// injected. No overall timeout: non-streaming calls bound themselves with a
// per-request context, and streaming responses may legitimately stay open
// for minutes. headerTimeout bounds how long the backend may take to start
// answering, which is the only timeout that can apply to a stream without
// killing it mid-flight; zero picks a generous default.
func DefaultHTTPClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = 180 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   5,
			IdleConnTimeout:       120 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: headerTimeout,
		},
	}
}

func truncate(body []byte) []byte {
	const max = 512
	if len(body) <= max {
		return body
	}
	return body[:max]
}
