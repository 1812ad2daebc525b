// Package monitor keeps the rolling usage log and everything derived from
// it: aggregate statistics, cost breakdowns, performance percentiles,
// threshold alerts, and budget-exhaustion projection.
//
// The log is append-only and bounded; LogUsage is O(1) amortized and never
// waits on aggregation. Readers snapshot the log under the lock and filter
// outside it, so appends proceed while an aggregate is being computed.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Monitor owns the usage log, the alert state, and the cost model.
type Monitor struct {
	mu       sync.Mutex
	entries  []models.UsageLogEntry // ring buffer
	next     int
	count    int
	capacity int

	costModel   *CostModel
	dailyBudget float64

	rules     []models.AlertRule
	alerts    map[string]*models.Alert
	lastFired map[string]time.Time // type|severity -> fired at

	sink *Sink // nil when the durable sink is disabled

	now func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Monitor. sink may be nil. An evalInterval of zero disables
// the background alert evaluation loop.
func New(cfg config.MonitorConfig, sink *Sink) *Monitor {
	if cfg.LogCapacity <= 0 {
		cfg.LogCapacity = 1000
	}
	m := &Monitor{
		entries:     make([]models.UsageLogEntry, cfg.LogCapacity),
		capacity:    cfg.LogCapacity,
		costModel:   NewCostModel(cfg.Rates),
		dailyBudget: cfg.DailyBudget,
		rules:       cfg.Rules,
		alerts:      make(map[string]*models.Alert),
		lastFired:   make(map[string]time.Time),
		sink:        sink,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	if cfg.EvalInterval > 0 {
		m.wg.Add(1)
		go m.evalLoop(cfg.EvalInterval)
	}
	return m
}

// CostModel returns the pluggable cost model used to price requests.
func (m *Monitor) CostModel() *CostModel {
	return m.costModel
}

// LogUsage appends a completed request to the rolling log. The oldest entry
// is overwritten once the log is full. Never blocks on aggregation; the
// durable sink write is asynchronous.
func (m *Monitor) LogUsage(e models.UsageLogEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}

	m.mu.Lock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % m.capacity
	if m.count < m.capacity {
		m.count++
	}
	m.mu.Unlock()

	outcome := "ok"
	if e.StatusCode >= 400 {
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(e.Endpoint, outcome).Inc()
	if e.CacheHit {
		CacheHitsTotal.WithLabelValues(e.Endpoint).Inc()
	}
	UpstreamLatency.WithLabelValues(e.Model).Observe(e.Latency.Seconds())
	RequestCost.Observe(e.Cost)

	if m.sink != nil {
		m.sink.EnqueueUsage(e)
	}
}

// snapshot copies entries newer than the cutoff. Appends during the copy are
// fine; the caller works on its own slice.
func (m *Monitor) snapshot(since time.Time) []models.UsageLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.UsageLogEntry, 0, m.count)
	for i := 0; i < m.count; i++ {
		e := m.entries[(m.next-m.count+i+m.capacity)%m.capacity]
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

// GetStats aggregates usage over the given window.
func (m *Monitor) GetStats(windowHours int) models.UsageStats {
	since := m.now().Add(-time.Duration(windowHours) * time.Hour)
	entries := m.snapshot(since)

	stats := models.UsageStats{WindowHours: windowHours}
	users := make(map[string]struct{})
	for _, e := range entries {
		stats.TotalRequests++
		stats.TotalCost += e.Cost
		if e.CacheHit {
			stats.CacheHits++
		}
		if e.StatusCode >= 400 {
			stats.Errors++
		}
		users[e.UserID] = struct{}{}
	}
	stats.UniqueUsers = len(users)
	return stats
}

// GetUserStats aggregates usage for one user over the given window.
func (m *Monitor) GetUserStats(userID string, windowHours int) models.UsageStats {
	since := m.now().Add(-time.Duration(windowHours) * time.Hour)
	entries := m.snapshot(since)

	stats := models.UsageStats{WindowHours: windowHours, UniqueUsers: 1}
	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		stats.TotalRequests++
		stats.TotalCost += e.Cost
		if e.CacheHit {
			stats.CacheHits++
		}
		if e.StatusCode >= 400 {
			stats.Errors++
		}
	}
	return stats
}

// GetCostBreakdown splits cost over the window by endpoint category.
func (m *Monitor) GetCostBreakdown(windowHours int) models.CostBreakdown {
	since := m.now().Add(-time.Duration(windowHours) * time.Hour)
	entries := m.snapshot(since)

	bd := models.CostBreakdown{
		WindowHours: windowHours,
		ByCategory:  make(map[string]float64),
	}
	for _, e := range entries {
		bd.ByCategory[e.Endpoint] += e.Cost
		bd.Total += e.Cost
	}
	return bd
}

// GetPerformanceMetrics computes latency percentiles, error rate, and cache
// hit rate over the window.
func (m *Monitor) GetPerformanceMetrics(windowHours int) models.PerformanceMetrics {
	since := m.now().Add(-time.Duration(windowHours) * time.Hour)
	entries := m.snapshot(since)

	pm := models.PerformanceMetrics{WindowHours: windowHours}
	if len(entries) == 0 {
		return pm
	}

	latencies := make([]time.Duration, 0, len(entries))
	var total time.Duration
	var errors, cacheHits int
	for _, e := range entries {
		latencies = append(latencies, e.Latency)
		total += e.Latency
		if e.StatusCode >= 400 {
			errors++
		}
		if e.CacheHit {
			cacheHits++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	pm.AvgLatency = total / time.Duration(len(latencies))
	pm.P95Latency = latencies[percentileIndex(len(latencies), 95)]
	pm.P99Latency = latencies[percentileIndex(len(latencies), 99)]
	pm.ErrorRate = float64(errors) / float64(len(entries)) * 100
	pm.CacheHitRate = float64(cacheHits) / float64(len(entries)) * 100
	return pm
}

func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// BudgetStatus reports today's spend against the daily budget and projects
// exhaustion at the trailing 24h rate. A zero rate leaves the projection
// undefined; a projection beyond a year is treated as no near-term risk.
func (m *Monitor) BudgetStatus() models.BudgetStatus {
	now := m.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var spentToday float64
	for _, e := range m.snapshot(midnight) {
		spentToday += e.Cost
	}

	var dailyRate float64
	for _, e := range m.snapshot(now.Add(-24 * time.Hour)) {
		dailyRate += e.Cost
	}

	bs := models.BudgetStatus{
		DailyBudget: m.dailyBudget,
		SpentToday:  spentToday,
		Remaining:   m.dailyBudget - spentToday,
		DailyRate:   dailyRate,
	}
	if bs.Remaining < 0 {
		bs.Remaining = 0
	}
	if dailyRate > 0 {
		days := bs.Remaining / dailyRate
		bs.DaysUntilExhausted = days
		bs.NearTermRisk = days <= 365
	}
	return bs
}

func (m *Monitor) evalLoop(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.EvaluateAlerts()
		}
	}
}

// Close stops the evaluation loop and the sink.
func (m *Monitor) Close() error {
	close(m.done)
	m.wg.Wait()
	if m.sink != nil {
		return m.sink.Close()
	}
	return nil
}
