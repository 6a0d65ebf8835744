package renderworker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// Static errors for render worker client operations.
var (
	// ErrTokenNotSet is returned when no worker token is provided.
	ErrTokenNotSet = errors.New("renderworker: token is required")
	// ErrTaskIDRequired is returned when the task ID is not provided.
	ErrTaskIDRequired = errors.New("renderworker: task ID is required")
	// ErrNoTaskIDReturned is returned when the submit response contains no task ID.
	ErrNoTaskIDReturned = errors.New("renderworker: submit failed: no task ID returned")
	// ErrSubmitFailed is returned when the worker rejects a task.
	ErrSubmitFailed = errors.New("renderworker: submit failed")
	// ErrNoOutputURL is returned when a completed task has no output URL.
	ErrNoOutputURL = errors.New("renderworker: no output URL in completed task")
)

// Client defines the interface for interacting with the render worker API.
type Client interface {
	// Submit queues a render task and returns the task ID.
	Submit(ctx context.Context, task Task) (taskID string, err error)

	// Poll checks the status of a task and returns the result.
	Poll(ctx context.Context, taskID string) (PollResult, error)

	// DownloadOutput downloads the rendered video to destPath.
	DownloadOutput(ctx context.Context, outputURL, destPath string) error
}

// HTTPClient is the HTTP implementation of Client.
// Tasks are submitted to POST {base}/tasks and polled at GET {base}/tasks/{id}.
type HTTPClient struct {
	api *apiclient.Client
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseBackoff = d
	}
}

// NewClient creates a render worker client for the API at baseURL.
func NewClient(baseURL, token string, opts ...ClientOption) (*HTTPClient, error) {
	if token == "" {
		return nil, ErrTokenNotSet
	}

	cfg := clientConfig{
		// Payloads carry every slide, so uploads can take a while.
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	api, err := apiclient.New("renderworker", baseURL,
		apiclient.WithBearerToken(token),
		apiclient.WithHTTPClient(cfg.httpClient),
		apiclient.WithMaxRetries(cfg.maxRetries),
		apiclient.WithBaseBackoff(cfg.baseBackoff),
	)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{api: api}, nil
}

// Submit queues a render task and returns the task ID.
func (c *HTTPClient) Submit(ctx context.Context, task Task) (string, error) {
	var resp taskResponse
	if err := c.api.PostJSON(ctx, "/tasks", task, &resp); err != nil {
		return "", err
	}

	if resp.TaskID == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrSubmitFailed, resp.Error)
		}
		return "", ErrNoTaskIDReturned
	}
	return resp.TaskID, nil
}

// Poll checks the status of a task and returns the result.
func (c *HTTPClient) Poll(ctx context.Context, taskID string) (PollResult, error) {
	if taskID == "" {
		return PollResult{}, ErrTaskIDRequired
	}

	var resp statusResponse
	if err := c.api.GetJSON(ctx, "/tasks/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return PollResult{}, err
	}

	result := PollResult{Status: normalizeStatus(resp.Status)}
	switch result.Status {
	case StatusCompleted:
		if len(resp.Outputs) > 0 && resp.Outputs[0].URL != "" {
			result.OutputURL = resp.Outputs[0].URL
		} else {
			result.Error = "no output URL available"
		}
	case StatusFailed, StatusCanceled:
		result.Error = resp.Error
	}
	return result, nil
}

// DownloadOutput downloads the video from the output URL to destPath.
func (c *HTTPClient) DownloadOutput(ctx context.Context, outputURL, destPath string) error {
	if outputURL == "" {
		return ErrNoOutputURL
	}
	return c.api.Download(ctx, outputURL, destPath)
}
