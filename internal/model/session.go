package model

import "time"

// RateLimitInfo captures what the service reported when it throttled a
// request. The client has no other visibility into server-side quota state.
type RateLimitInfo struct {
	ResetAt   time.Time `json:"resetAt"`   // When the quota window reopens
	Limit     int       `json:"limit"`     // Requests allowed per window
	Remaining int       `json:"remaining"` // Requests left in the current window
	Message   string    `json:"message,omitempty"`
}

// Wait returns the remaining time until the reported reset, floored at zero
func (r RateLimitInfo) Wait(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ImportResult is the terminal payload of a successful pipeline run
type ImportResult struct {
	Success  bool               `json:"success"`
	Insights []GeneratedInsight `json:"insights"`
	Errors   []string           `json:"errors"`
}
