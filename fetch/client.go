// Package fetch wraps an HTTP client with the extension registry's API hook
// chain: requests pass through BeforeFetch, responses through AfterFetch,
// and transport errors through OnFetchError before reaching the caller.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shopcore/shopcore/extension"
)

// Fetch error classification. A transport error is offered to the
// OnFetchError chain first; the sentinel the caller receives says whether
// any extension claimed to have handled it. Unhandled errors are the
// caller's to deal with (e.g. falling back to mock data).
var (
	ErrUnhandledFetch = errors.New("fetch failed")
	ErrHandledFetch   = errors.New("fetch failed, handled by extension")
)

// Client executes HTTP requests through the extension API hook chain.
type Client struct {
	registry   *extension.Registry
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a fetch client dispatching through the given registry.
func NewClient(registry *extension.Registry, opts ...ClientOption) *Client {
	c := &Client{
		registry:   registry,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs the full interception pipeline for one request:
// BeforeFetch chain -> HTTP round trip -> AfterFetch chain. On a transport
// error the OnFetchError chain runs first; if no extension handled the
// error it propagates wrapped in ErrUnhandledFetch.
func (c *Client) Do(ctx context.Context, req *extension.FetchRequest) (*extension.FetchResponse, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	req = c.registry.ApplyBeforeFetch(ctx, req)

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", req.URL, err)
	}
	httpReq.Header = req.Header

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.handleError(ctx, req.URL, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.handleError(ctx, req.URL, err)
	}

	resp := &extension.FetchResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}
	resp = c.registry.ApplyAfterFetch(ctx, resp)

	log.Debug().Str("url", req.URL).Str("method", req.Method).Int("status", resp.StatusCode).Msg("fetch completed")
	return resp, nil
}

// handleError surfaces the error to the OnFetchError chain and wraps it in
// the matching sentinel.
func (c *Client) handleError(ctx context.Context, url string, err error) error {
	if c.registry.ApplyFetchError(ctx, err) {
		log.Warn().Err(err).Str("url", url).Msg("fetch error handled by extension")
		return fmt.Errorf("%w: %s: %w", ErrHandledFetch, url, err)
	}
	log.Error().Err(err).Str("url", url).Msg("fetch error unhandled by extensions")
	return fmt.Errorf("%w: %s: %w", ErrUnhandledFetch, url, err)
}

// Get fetches the URL and returns the intercepted response.
func (c *Client) Get(ctx context.Context, url string) (*extension.FetchResponse, error) {
	return c.Do(ctx, &extension.FetchRequest{Method: http.MethodGet, URL: url})
}

// GetJSON fetches the URL and decodes the intercepted response body into v.
// Non-2xx statuses are errors.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
