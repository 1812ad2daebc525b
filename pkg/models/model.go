package models

import "time"

// ModelProfile is static configuration describing an upstream model variant.
type ModelProfile struct {
	Name           string        `json:"name" yaml:"name"`
	ContentType    ContentType   `json:"content_type" yaml:"content_type"`
	CostMultiplier float64       `json:"cost_multiplier" yaml:"cost_multiplier"`
	QualityScore   float64       `json:"quality_score" yaml:"quality_score"` // 0..1
	SpeedScore     float64       `json:"speed_score" yaml:"speed_score"`     // 0..1
	BaseLatency    time.Duration `json:"base_latency" yaml:"base_latency"`
}

// ModelMetric is the learned per-model state, updated after every recorded
// usage with incremental means.
type ModelMetric struct {
	AverageLatency time.Duration `json:"average_latency"`
	AverageCost    float64       `json:"average_cost"`
	SuccessRate    float64       `json:"success_rate"`
	UsageCount     int64         `json:"usage_count"`
	LastUsedAt     time.Time     `json:"last_used_at"`
}

// ModelCandidate is a scored alternative returned alongside a selection.
type ModelCandidate struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// ModelSelection is the optimizer's answer for one request.
type ModelSelection struct {
	Model            string           `json:"model"`
	Reason           string           `json:"reason"`
	Confidence       float64          `json:"confidence"`
	Alternatives     []ModelCandidate `json:"alternatives"`
	EstimatedCost    float64          `json:"estimated_cost"`
	EstimatedLatency time.Duration    `json:"estimated_latency"`
	EstimatedQuality float64          `json:"estimated_quality"`
}

// SelectionContext carries the request facts the optimizer scores against.
type SelectionContext struct {
	Priority   Priority   `json:"priority"`
	Tier       Tier       `json:"tier"`
	Difficulty Difficulty `json:"difficulty"`
}
