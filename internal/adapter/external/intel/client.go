// Package intel talks to the external IP-lookup service and normalizes its
// reply into the threat-intelligence bundle consumed by the conversation
// engine.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/VishwasN1706/airis/internal/entity"
)

// LookupError is the typed failure for a lookup: transport errors, non-2xx
// statuses, and unparsable bodies all surface as a LookupError carrying the
// IP. The caller decides the user-visible fallback.
type LookupError struct {
	IP         string
	StatusCode int
	Message    string
	Err        error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup %s: %s: %v", e.IP, e.Message, e.Err)
	}
	return fmt.Sprintf("lookup %s: %s", e.IP, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Config holds lookup client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimitDelay is the minimum spacing between outbound requests.
	RateLimitDelay time.Duration
}

// Client issues one request per lookup against the external service. It never
// retries; retry is operator-initiated.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a lookup client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimitDelay == 0 {
		cfg.RateLimitDelay = 200 * time.Millisecond
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimitDelay), 1),
	}
}

// Lookup fetches and normalizes the threat-intelligence bundle for ip.
func (c *Client) Lookup(ctx context.Context, ip string) (*entity.Bundle, error) {
	if ip == "" {
		return nil, &LookupError{IP: ip, Message: "empty IP address"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &LookupError{IP: ip, Message: "rate limiter wait", Err: err}
	}

	reqURL := fmt.Sprintf("%s/api/lookup/%s", c.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &LookupError{IP: ip, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LookupError{IP: ip, Message: "execute request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LookupError{
			IP:         ip,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LookupError{IP: ip, Message: "read body", Err: err}
	}

	var wire lookupResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &LookupError{IP: ip, Message: "decode response", Err: err}
	}

	return normalize(&wire, body), nil
}
