// Package apiclient provides a small JSON-over-HTTP client shared by the
// script, image, narration and transcription adapters.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Static errors for API client operations.
var (
	// ErrBaseURLRequired is returned when the base URL is not provided.
	ErrBaseURLRequired = errors.New("apiclient: base URL is required")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("apiclient: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("apiclient: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("apiclient: request failed")
	// ErrDownloadFailed is returned when a file download does not return 200.
	ErrDownloadFailed = errors.New("apiclient: download failed")
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// Client performs authenticated HTTP requests against one API.
type Client struct {
	name        string
	baseURL     string
	headers     http.Header
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBearerToken sets an "Authorization: Bearer" header.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.headers.Set("Authorization", "Bearer "+token)
	}
}

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.baseBackoff = d
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// New creates a client for the API at baseURL. The name prefixes errors.
func New(name, baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &Client{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		headers:     http.Header{},
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxRetries:  2,
		baseBackoff: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the API name used in error messages.
func (c *Client) Name() string {
	return c.name
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	ContentType string
	Body        []byte
}

// PostJSON sends body as JSON and decodes the JSON response into result.
func (c *Client) PostJSON(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.name, err)
	}
	resp, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		ContentType: "application/json",
		Body:        data,
	})
	if err != nil {
		return err
	}
	return c.decode(resp, result)
}

// GetJSON performs a GET with query parameters and decodes the JSON response.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return c.decode(resp, result)
}

// PostForBytes sends body as JSON and returns the raw response body,
// for endpoints that answer with binary data such as audio.
func (c *Client) PostForBytes(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		ContentType: "application/json",
		Body:        data,
	})
}

// Do performs the request with exponential backoff retry on transport
// errors, 429 and 5xx responses, and returns the response body.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s: context cancelled: %w", c.name, ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		body, err := c.doOnce(ctx, r)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%s: max retries exceeded: %w", c.name, lastErr)
}

// doOnce performs a single HTTP request.
func (c *Client) doOnce(ctx context.Context, r Request) ([]byte, error) {
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var bodyReader io.Reader
	if r.Body != nil {
		bodyReader = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%s: request failed: %w", c.name, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%s: read response: %w", c.name, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := truncate(string(respBody), maxErrorBody)
		if resp.StatusCode >= 500 {
			return nil, &retryableError{err: fmt.Errorf("%s: %w %d: %s", c.name, ErrServerError, resp.StatusCode, snippet)}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &retryableError{err: fmt.Errorf("%s: %w: %s", c.name, ErrRateLimited, snippet)}
		}
		return nil, fmt.Errorf("%s: %w with status %d: %s", c.name, ErrRequestFailed, resp.StatusCode, snippet)
	}

	return respBody, nil
}

func (c *Client) decode(body []byte, result any) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", c.name, err)
	}
	return nil
}

// Download fetches an absolute URL into destPath without retries.
// Only the User-Agent header is forwarded to the remote host.
func (c *Client) Download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: create download request: %w", c.name, err)
	}
	if ua := c.headers.Get("User-Agent"); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: download request failed: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w with status %d", c.name, ErrDownloadFailed, resp.StatusCode)
	}

	out, err := os.Create(destPath) // #nosec G304 - destPath is built by the caller inside its workspace
	if err != nil {
		return fmt.Errorf("%s: create output file: %w", c.name, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return fmt.Errorf("%s: copy download data: %w", c.name, err)
	}
	return out.Close()
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
