package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts governed requests by endpoint and outcome.
var RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparkgov",
	Name:      "requests_total",
	Help:      "Total governed generation requests.",
}, []string{"endpoint", "outcome"})

// CacheHitsTotal counts requests served from cache.
var CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparkgov",
	Name:      "cache_hits_total",
	Help:      "Requests served from the response cache.",
}, []string{"endpoint"})

// RateLimitDenials counts rejected checks by reason.
var RateLimitDenials = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparkgov",
	Name:      "rate_limit_denials_total",
	Help:      "Requests denied by the rate limiter or cost ledger.",
}, []string{"reason"})

// UpstreamLatency tracks end-to-end upstream call duration.
var UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "sparkgov",
	Name:      "upstream_latency_seconds",
	Help:      "Upstream generation call duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"model"})

// RequestCost tracks per-request dollar cost.
var RequestCost = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sparkgov",
	Name:      "request_cost_dollars",
	Help:      "Dollar cost per completed request.",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
})

// AlertsFired counts alerts by type and severity.
var AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparkgov",
	Name:      "alerts_fired_total",
	Help:      "Threshold alerts fired.",
}, []string{"type", "severity"})
