// Package client talks to the insight service: one endpoint that turns a
// combined research dataset into draft insights, and one that ranks journey-map
// placements for those drafts. Both are single-shot JSON POST calls.
//
// Rate limiting is part of the wire contract: a throttled request comes back
// as HTTP 429 with a structured body, and is surfaced as *RateLimitError so
// the orchestrator can treat it differently from ordinary failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/insightmap/insightmap/internal/model"
)

const maxResponseBytes = 8 << 20

// Client is a thin HTTP client for the generation and matching endpoints
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a client for the service at baseURL
func New(baseURL string, timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

// RateLimitError reports that the service throttled the request. It carries
// the reset time and quota counters the service included in the response.
type RateLimitError struct {
	Info model.RateLimitInfo
}

func (e *RateLimitError) Error() string {
	if e.Info.Message != "" {
		return "rate limited: " + e.Info.Message
	}
	return fmt.Sprintf("rate limited until %s", e.Info.ResetAt.Format(time.RFC3339))
}

// rateLimitBody is the structured 429 payload both endpoints use
type rateLimitBody struct {
	Error     string `json:"error"`
	ResetTime int64  `json:"resetTime"` // Unix milliseconds
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message,omitempty"`
}

// post sends a JSON request and decodes a JSON response into out.
//
// The rate-limit check runs before generic error handling: the same HTTP
// error path carries both, and the discriminator is the structured
// error=rate_limit field, not the status code alone.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if rl := parseRateLimit(body); rl != nil {
		return rl
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, firstLine(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseRateLimit returns a *RateLimitError if the body is the structured
// rate-limit payload, else nil.
func parseRateLimit(body []byte) *RateLimitError {
	var rl rateLimitBody
	if err := json.Unmarshal(body, &rl); err != nil || rl.Error != "rate_limit" {
		return nil
	}
	return &RateLimitError{Info: model.RateLimitInfo{
		ResetAt:   time.UnixMilli(rl.ResetTime),
		Limit:     rl.Limit,
		Remaining: rl.Remaining,
		Message:   rl.Message,
	}}
}

// firstLine trims an error body down to something printable
func firstLine(body []byte) string {
	const max = 200
	s := string(body)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > max {
		s = s[:max]
	}
	return s
}
