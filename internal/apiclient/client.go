// Package apiclient implements the HTTP surface of the Dev/Planet
// backend. It serves two roles: session bootstrapping (login, stats)
// and the analysis fallback path used when the stream is down. Every
// endpoint is independently retriable.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 4 << 20

	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 5 * time.Second
)

// TokenFunc supplies the current bearer token, or "" when anonymous.
type TokenFunc func() string

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string

	// Timeout bounds each request attempt. Zero means DefaultTimeout.
	Timeout time.Duration

	// Token supplies the bearer token for authenticated endpoints.
	Token TokenFunc

	// OnUnauthorized fires once per 401 response, before the error is
	// returned. Used to invalidate cached credentials.
	OnUnauthorized func()

	Logger *slog.Logger
}

// Client is a retrying HTTP client for the backend REST endpoints.
type Client struct {
	baseURL        string
	client         *http.Client
	token          TokenFunc
	onUnauthorized func()
	logger         *slog.Logger
	retry          retryConfig
}

type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// New creates a client for the given backend.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		client:         &http.Client{Timeout: timeout},
		token:          opts.Token,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger,
		retry: retryConfig{
			maxRetries: defaultMaxRetries,
			baseDelay:  defaultBaseDelay,
			maxDelay:   defaultMaxDelay,
		},
	}
}

// doRequest performs one HTTP request with retry on network failures
// and 5xx responses. Client errors (4xx) are never retried.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.baseDelay * time.Duration(1<<uint(attempt-1))
			if delay > c.retry.maxDelay {
				delay = c.retry.maxDelay
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			c.logger.Debug("Retrying request",
				"method", method,
				"path", path,
				"attempt", attempt+1)
		}

		var reader io.Reader
		if body != nil {
			reader = strings.NewReader(string(body))
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "devplanet-client/1.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != nil {
			if tok := c.token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return resp, nil
		}
		if resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.retry.maxRetries, lastErr)
}

// call performs a request and decodes the JSON response into out. A
// nil out discards the body after the status check.
func (c *Client) call(ctx context.Context, method, path string, reqBody, out any) error {
	var payload []byte
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	resp, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return parseErrorResponse(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// parseErrorResponse extracts the error message from a failed response.
func parseErrorResponse(statusCode int, body []byte) error {
	var resp struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &resp); err == nil {
		switch {
		case resp.Detail != "":
			msg = resp.Detail
		case resp.Message != "":
			msg = resp.Message
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}
