// Package ratelimit spaces requests to the metadata APIs and keeps track of
// the request quota the primary API reports in its response headers.
package ratelimit

import (
	"time"
)

// Quota header names sent by the Elsevier APIs.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// QuotaLowThreshold is the remaining-request count below which a warning is logged.
const QuotaLowThreshold = 100

// QuotaState is the most recently observed API key quota.
type QuotaState struct {
	// Limit is the request allowance of the current window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the headers were last seen.
	LastUpdate time.Time `json:"last_update"`

	// Known is false until quota headers have been observed.
	Known bool `json:"known"`
}

// IsExhausted reports whether the API announced zero remaining requests.
func (s QuotaState) IsExhausted() bool {
	return s.Known && s.Remaining <= 0
}

// IsLow reports whether the remaining quota fell under QuotaLowThreshold.
func (s QuotaState) IsLow() bool {
	return s.Known && s.Remaining < QuotaLowThreshold
}

// IsStale reports whether the state is older than maxAge.
func (s QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// TimeUntilReset returns the duration until the quota resets, or 0.
func (s QuotaState) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}
