package models

import "time"

// DenyReason explains a rejected rate-limit check.
type DenyReason string

const (
	DenyRateLimit DenyReason = "rate_limit_exceeded"
	DenyCostLimit DenyReason = "cost_limit_exceeded"
)

// RateDecision is the outcome of a CheckAndReserve call.
type RateDecision struct {
	Allowed       bool          `json:"allowed"`
	Tier          Tier          `json:"tier"`
	Remaining     int           `json:"remaining"`
	CostRemaining float64       `json:"cost_remaining"`
	ResetAt       time.Time     `json:"reset_at"`
	RetryAfter    time.Duration `json:"retry_after,omitempty"`
	Reason        DenyReason    `json:"reason,omitempty"`
}
