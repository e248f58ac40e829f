package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MagicTurtle-s/asana-mcp-railway/internal/metrics"
)

const (
	// DefaultBaseURL is the Asana REST API root.
	DefaultBaseURL = "https://app.asana.com/api/1.0"

	requestTimeout = 30 * time.Second

	// pageLimit is the maximum page size Asana accepts.
	pageLimit = 100
)

// APIError is a non-2xx response from the Asana API, with the provider's
// message when the error payload carries one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana api error (%d): %s", e.StatusCode, e.Message)
}

// RateLimitError is returned when Asana rejects a request with 429 and the
// automatic single retry is exhausted or disabled.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// NextPage is Asana's pagination cursor.
type NextPage struct {
	Offset string `json:"offset"`
	Path   string `json:"path"`
	URI    string `json:"uri"`
}

// envelope is the { "data": ..., "next_page": ..., "errors": ... } wrapper
// Asana puts around every response.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *NextPage       `json:"next_page"`
	Errors   []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// requestBody wraps outbound payloads the way Asana expects them.
type requestBody struct {
	Data interface{} `json:"data"`
}

// Client is an authenticated HTTP client for the Asana API. One client is
// created per tool call from the caller's current access token; the rate
// limiter is shared process-wide.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	limiter *RateLimiter
	metrics *metrics.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root (primarily for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRateLimiter shares a process-wide limiter across clients.
func WithRateLimiter(limiter *RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithMetrics attaches gateway metrics to the client.
func WithMetrics(mx *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = mx
	}
}

// NewClient creates a client that authenticates with the given access token.
func NewClient(accessToken string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   accessToken,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(DefaultMaxRequestsPerMinute)
	}
	return c
}

// do issues one API request with rate limiting, 429 handling and error
// normalization. A 429 is retried once after the server's Retry-After.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body interface{}, retryOnRateLimit bool) (*envelope, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(requestBody{Data: body})
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.IncAsanaRequest(method, "error")
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &APIError{StatusCode: http.StatusRequestTimeout, Message: "request timeout: " + err.Error()}
		}
		return nil, &APIError{StatusCode: http.StatusServiceUnavailable, Message: "network error: " + err.Error()}
	}
	defer resp.Body.Close()

	c.metrics.IncAsanaRequest(method, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if retryOnRateLimit {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryAfter):
			}
			return c.do(ctx, method, endpoint, query, body, false)
		}
		return nil, &RateLimitError{RetryAfter: retryAfter}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	var env envelope
	if len(raw) > 0 {
		// Tolerate non-JSON error bodies; the status check below reports them.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode >= 400 {
		message := string(raw)
		if len(env.Errors) > 0 && env.Errors[0].Message != "" {
			message = env.Errors[0].Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return &env, nil
}

// get issues a GET and decodes the data payload into out.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	env, err := c.do(ctx, http.MethodGet, endpoint, query, nil, true)
	if err != nil {
		return err
	}
	return decodeData(env, out)
}

// post issues a POST with a data-wrapped body and decodes the result.
func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	env, err := c.do(ctx, http.MethodPost, endpoint, nil, body, true)
	if err != nil {
		return err
	}
	return decodeData(env, out)
}

// put issues a PUT with a data-wrapped body and decodes the result.
func (c *Client) put(ctx context.Context, endpoint string, body, out interface{}) error {
	env, err := c.do(ctx, http.MethodPut, endpoint, nil, body, true)
	if err != nil {
		return err
	}
	return decodeData(env, out)
}

// delete issues a DELETE.
func (c *Client) delete(ctx context.Context, endpoint string) error {
	_, err := c.do(ctx, http.MethodDelete, endpoint, nil, nil, true)
	return err
}

// getPaginated follows next_page cursors until exhaustion or maxResults,
// collecting the raw elements of each page's data array.
func (c *Client) getPaginated(ctx context.Context, endpoint string, query url.Values, maxResults int) ([]json.RawMessage, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(pageLimit))

	var results []json.RawMessage
	for {
		env, err := c.do(ctx, http.MethodGet, endpoint, query, nil, true)
		if err != nil {
			return nil, err
		}

		var page []json.RawMessage
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &page); err != nil {
				return nil, fmt.Errorf("decode page: %w", err)
			}
		}
		results = append(results, page...)

		if maxResults > 0 && len(results) >= maxResults {
			return results[:maxResults], nil
		}
		if env.NextPage == nil || env.NextPage.Offset == "" {
			return results, nil
		}
		query.Set("offset", env.NextPage.Offset)
	}
}

func decodeData(env *envelope, out interface{}) error {
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// decodePages unmarshals the collected raw page elements into typed records.
func decodePages[T any](pages []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(pages))
	for _, raw := range pages {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode page item: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

func parseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}
