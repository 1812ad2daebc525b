package models

import (
	"strings"
	"time"
)

// ContentType identifies the kind of generation a request asks for.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentExercise ContentType = "exercise"
)

// Priority states what the caller cares most about when a model is chosen.
type Priority string

const (
	PrioritySpeed   Priority = "speed"
	PriorityQuality Priority = "quality"
	PriorityCost    Priority = "cost"
)

// Difficulty grades the content being generated.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Tier is a named user class scaling rate and cost ceilings.
type Tier string

const (
	TierAnonymous Tier = "anonymous"
	TierFree      Tier = "free"
	TierPremium   Tier = "premium"
)

// Multiplier returns the ceiling multiplier for a tier. Unknown tiers
// get 1.0 so a misconfigured tier never grants extra budget.
func (t Tier) Multiplier() float64 {
	switch t {
	case TierAnonymous:
		return 0.5
	case TierFree:
		return 1.0
	case TierPremium:
		return 3.0
	default:
		return 1.0
	}
}

// GenerationOptions are the normalized parameters sent upstream.
type GenerationOptions struct {
	Temperature float64    `json:"temperature" yaml:"temperature"`
	MaxTokens   int        `json:"max_tokens" yaml:"max_tokens"`
	Width       int        `json:"width,omitempty" yaml:"width,omitempty"`
	Height      int        `json:"height,omitempty" yaml:"height,omitempty"`
	Topic       string     `json:"topic,omitempty" yaml:"topic,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}

// Fingerprint is the deterministic key derived from a normalized request.
// It is comparable and safe to use as a map key.
type Fingerprint struct {
	ContentType ContentType
	Prompt      string
	Params      string
}

// Key renders the fingerprint as a lowercase pipe-delimited tuple, stable
// across process restarts so persistent cache rows remain valid.
func (f Fingerprint) Key() string {
	return strings.ToLower(string(f.ContentType) + "|" + f.Prompt + "|" + f.Params)
}

// GenerationRequest is the inbound request handed to the governor.
type GenerationRequest struct {
	UserID      string            `json:"user_id"`
	Tier        Tier              `json:"tier,omitempty"`
	ContentType ContentType       `json:"content_type"`
	Prompt      string            `json:"prompt"`
	Options     GenerationOptions `json:"options"`
	Priority    Priority          `json:"priority,omitempty"`
}

// RawContent is what a generation backend returns.
type RawContent struct {
	Data       []byte `json:"data"`
	Model      string `json:"model"`
	Tokens     int    `json:"tokens"`
	StatusCode int    `json:"status_code"`
}

// GenerationResult is the governor's answer to a request.
type GenerationResult struct {
	Data           []byte        `json:"data"`
	Model          string        `json:"model"`
	FromCache      bool          `json:"from_cache"`
	Fallback       bool          `json:"fallback"`
	Cost           float64       `json:"cost"`
	Latency        time.Duration `json:"latency"`
	GenerationTime time.Duration `json:"generation_time"`
}
