package models

import "time"

// UsageLogEntry is an immutable record of one completed request. Entries are
// appended to the monitor's rolling log and never mutated.
type UsageLogEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	UserID     string        `json:"user_id"`
	Endpoint   string        `json:"endpoint"`
	Model      string        `json:"model"`
	Cost       float64       `json:"cost"`
	Latency    time.Duration `json:"latency"`
	StatusCode int           `json:"status_code"`
	CacheHit   bool          `json:"cache_hit"`
}

// UsageStats aggregates usage over a window.
type UsageStats struct {
	WindowHours   int     `json:"window_hours"`
	TotalRequests int64   `json:"total_requests"`
	TotalCost     float64 `json:"total_cost"`
	CacheHits     int64   `json:"cache_hits"`
	Errors        int64   `json:"errors"`
	UniqueUsers   int     `json:"unique_users"`
}

// CostBreakdown splits cost over a window by endpoint category.
type CostBreakdown struct {
	WindowHours int                `json:"window_hours"`
	Total       float64            `json:"total"`
	ByCategory  map[string]float64 `json:"by_category"`
}

// PerformanceMetrics summarizes latency and reliability over a window.
type PerformanceMetrics struct {
	WindowHours  int           `json:"window_hours"`
	AvgLatency   time.Duration `json:"avg_latency"`
	P95Latency   time.Duration `json:"p95_latency"`
	P99Latency   time.Duration `json:"p99_latency"`
	ErrorRate    float64       `json:"error_rate"`
	CacheHitRate float64       `json:"cache_hit_rate"`
}

// BudgetStatus reports spend against the configured daily budget, with a
// projection of when the budget runs out at the current daily rate.
type BudgetStatus struct {
	DailyBudget        float64 `json:"daily_budget"`
	SpentToday         float64 `json:"spent_today"`
	Remaining          float64 `json:"remaining"`
	DailyRate          float64 `json:"daily_rate"`
	DaysUntilExhausted float64 `json:"days_until_exhausted"` // 0 when undefined
	NearTermRisk       bool    `json:"near_term_risk"`
}
