package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second

	defaultRequests = 5
	defaultWindow   = time.Second
	defaultBurst    = 1
	errorBodyLimit  = 2048
)

// Options configures a Client. Zero values fall back to the package defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Requests  int
	Window    time.Duration
	Burst     int
}

// Client issues paced JSON requests against third-party endpoints.
// A single request is never retried; failures surface as *FetchError.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiter:    newLimiter(opts.Requests, opts.Window, opts.Burst),
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

func newLimiter(requests int, window time.Duration, burst int) *rate.Limiter {
	if requests <= 0 || window <= 0 {
		requests, window = defaultRequests, defaultWindow
	}
	if burst <= 0 {
		burst = min(requests, defaultBurst)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(requests)), burst)
}

// GetRaw performs a GET against endpoint with the given query and returns the
// undecoded 2xx body. source names the caller in errors ("OP.GG", "ddragon").
func (c *Client) GetRaw(ctx context.Context, source, endpoint string, query url.Values) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := endpoint
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target = endpoint + sep + query.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Source: source, URL: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Source: source, URL: target, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Source: source, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &FetchError{
			Source:     source,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: source, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	return json.RawMessage(body), nil
}

// GetJSON is GetRaw followed by a decode into T. Decode failures are returned
// wrapped but are not FetchErrors: the transport succeeded.
func GetJSON[T any](ctx context.Context, c *Client, source, endpoint string, query url.Values) (target T, err error) {
	raw, err := c.GetRaw(ctx, source, endpoint, query)
	if err != nil {
		return target, err
	}
	if err := json.Unmarshal(raw, &target); err != nil {
		return target, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return target, nil
}
