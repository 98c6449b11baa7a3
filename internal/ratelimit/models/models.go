package models

import (
	"strings"
	"time"
)

// Class groups routes that share a fixed-window budget.
type Class string

const (
	// ClassStrict covers high-security submissions (10 req/hour per IP).
	ClassStrict Class = "strict"
	// ClassStandard covers standard submissions (100 req/15min per IP).
	ClassStandard Class = "standard"
)

// Limit is the budget of a class: Requests per Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// NewResult derives a Result from the window counter after the current hit.
func NewResult(count int, limit Limit, resetAt, now time.Time) *Result {
	res := &Result{
		Allowed:   count <= limit.Requests,
		Limit:     limit.Requests,
		Remaining: max(limit.Requests-count, 0),
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = max(int(resetAt.Sub(now).Round(time.Second)/time.Second), 1)
	}
	return res
}

// Key builds the counter key for a class and client identifier.
func Key(class Class, identifier string) string {
	return "ratelimit:" + string(class) + ":" + SanitizeKeySegment(identifier)
}

// SanitizeKeySegment escapes delimiter characters so a client-controlled
// identifier cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// ExceededResponse is the API response when a limit is exceeded.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}
