// Package ebay implements the comparable item fetcher against the
// marketplace Finding API: concurrent sold/active queries with
// response caching, an hourly rate limit, retries with backoff, and
// strict acknowledgment validation.
package ebay

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/guarzo/trustguard/internal/cache"
	"github.com/guarzo/trustguard/internal/ratelimit"
)

// Config holds Finding API client settings.
type Config struct {
	AppID          string
	BaseURL        string
	SiteID         string
	Version        string
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	MaxEntries     int
}

// DefaultConfig returns conservative production settings.
func DefaultConfig(appID string) Config {
	return Config{
		AppID:          appID,
		BaseURL:        "https://svcs.ebay.com/services/search/FindingService/v1",
		SiteID:         "EBAY-US",
		Version:        "1.13.0",
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		RequestTimeout: 8 * time.Second,
		CacheTTL:       5 * time.Minute,
		MaxEntries:     100,
	}
}

// Client is a Finding API client. Safe for concurrent use; the cache
// and the limiter are the only shared mutable state and both are
// internally synchronized.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	cache      *cache.Memory
}

// NewClient creates a Finding API client. A nil limiter or cache
// disables that layer.
func NewClient(config Config, limiter *ratelimit.Limiter, respCache *cache.Memory) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
			Transport: &http.Transport{
				// Encodings are negotiated and decoded by hand so
				// brotli responses are handled too.
				DisableCompression: true,
			},
		},
		limiter: limiter,
		cache:   respCache,
	}
}

// Available reports whether the client is configured for live calls.
func (c *Client) Available() bool {
	return c.config.AppID != ""
}

// makeRequest executes one Finding API operation with caching, rate
// limiting, and retry. Returns the parsed search response.
func (c *Client) makeRequest(ctx context.Context, operation string, params url.Values) (*searchResponse, error) {
	key := cache.Key(operation, params)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached.(*searchResponse), nil
		}
	}

	request := url.Values{}
	request.Set("OPERATION-NAME", operation)
	request.Set("SERVICE-VERSION", c.config.Version)
	request.Set("SECURITY-APPNAME", c.config.AppID)
	request.Set("RESPONSE-DATA-FORMAT", "JSON")
	request.Set("REST-PAYLOAD", "")
	request.Set("GLOBAL-ID", c.config.SiteID)
	for k, vs := range params {
		for _, v := range vs {
			request.Add(k, v)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		// Every attempt hits the upstream API, so every attempt spends a
		// quota token, retries included.
		if c.limiter != nil && !c.limiter.Allow() {
			return nil, ErrRateLimited
		}

		resp, err := c.doRequest(ctx, request)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if !c.sleepBackoff(ctx, c.config.RetryDelay<<uint(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			lastErr = &UpstreamError{Operation: operation, Message: "rate limited upstream"}
			log.Printf("ebay: %s got 429, waiting %s", operation, retryAfter)
			if !c.sleepBackoff(ctx, retryAfter) {
				return nil, ctx.Err()
			}
			continue
		}

		body, err := readBody(resp)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			if !c.sleepBackoff(ctx, c.config.RetryDelay<<uint(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &UpstreamError{
				Operation: operation,
				Message:   fmt.Sprintf("HTTP %d", resp.StatusCode),
			}
		}

		parsed, err := parseResponse(body, operation)
		if err != nil {
			return nil, err
		}

		if c.cache != nil {
			c.cache.Set(key, parsed, c.config.CacheTTL)
		}
		return parsed, nil
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", operation, c.config.MaxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "TrustGuard-API/2.0")
	req.Header.Set("Accept-Encoding", "gzip, br")

	return c.httpClient.Do(req)
}

// sleepBackoff waits for d or until the context is cancelled.
// Returns false on cancellation.
func (c *Client) sleepBackoff(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// readBody decodes the response body according to Content-Encoding.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	return io.ReadAll(reader)
}

// parseResponse unwraps the operation envelope and validates the
// acknowledgment. Anything other than Success/Warning is a hard
// upstream error.
func parseResponse(body []byte, operation string) (*searchResponse, error) {
	var envelope map[string][]searchResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &UpstreamError{Operation: operation, Message: "malformed JSON payload"}
	}

	responses, ok := envelope[operation+"Response"]
	if !ok || len(responses) == 0 {
		return nil, &UpstreamError{Operation: operation, Message: "missing response envelope"}
	}

	sr := responses[0]
	ack := ""
	if len(sr.Ack) > 0 {
		ack = sr.Ack[0]
	}
	if ack != "Success" && ack != "Warning" {
		return nil, &UpstreamError{
			Operation: operation,
			Message:   fmt.Sprintf("acknowledgment %q: %s", ack, sr.errorText()),
		}
	}
	if ack == "Warning" {
		log.Printf("ebay: %s warning: %s", operation, sr.errorText())
	}

	return &sr, nil
}

func parseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 60 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
