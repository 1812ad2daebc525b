package monitor

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
	"github.com/google/uuid"
)

// resolvedAlertRetention is how long a resolved alert stays queryable before
// the evaluation loop drops it from the in-memory map.
const resolvedAlertRetention = 24 * time.Hour

// EvaluateAlerts checks every configured rule against the latest one-hour
// aggregates and fires alerts for breached thresholds. A (type, severity)
// pair fires at most once per cooldown, so a sustained breach does not storm.
// Each evaluation also prunes alerts resolved longer ago than the retention,
// keeping the map bounded over the process lifetime.
func (m *Monitor) EvaluateAlerts() []models.Alert {
	perf := m.GetPerformanceMetrics(1)
	stats := m.GetStats(1)
	budget := m.BudgetStatus()
	now := m.now()

	var fired []models.Alert

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, a := range m.alerts {
		if a.Status == models.AlertResolved && now.Sub(a.ResolvedAt) > resolvedAlertRetention {
			delete(m.alerts, id)
		}
	}

	for _, rule := range m.rules {
		observed, known := observedValue(rule.Type, perf, stats, budget)
		if !known || observed <= rule.Threshold {
			continue
		}

		key := string(rule.Type) + "|" + string(rule.Severity)
		if last, ok := m.lastFired[key]; ok && now.Sub(last) < rule.Cooldown {
			continue
		}
		m.lastFired[key] = now

		a := models.Alert{
			ID:            uuid.NewString(),
			Type:          rule.Type,
			Severity:      rule.Severity,
			Status:        models.AlertFiring,
			Message:       alertMessage(rule.Type, observed, rule.Threshold),
			ObservedValue: observed,
			Threshold:     rule.Threshold,
			FiredAt:       now,
		}
		m.alerts[a.ID] = &a
		fired = append(fired, a)

		AlertsFired.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		log.Printf("alert fired: [%s/%s] %s", a.Severity, a.Type, a.Message)

		if m.sink != nil {
			m.sink.EnqueueAlert(a)
		}
	}
	return fired
}

// observedValue maps an alert type to its current measurement. The second
// return is false when the measurement is undefined (e.g. budget projection
// with a zero daily rate).
func observedValue(t models.AlertType, perf models.PerformanceMetrics, stats models.UsageStats, budget models.BudgetStatus) (float64, bool) {
	switch t {
	case models.AlertErrorRate:
		return perf.ErrorRate, stats.TotalRequests > 0
	case models.AlertLatency:
		return float64(perf.AvgLatency.Milliseconds()), stats.TotalRequests > 0
	case models.AlertCostRate:
		return stats.TotalCost, true
	case models.AlertCacheMissRate:
		return 100 - perf.CacheHitRate, stats.TotalRequests > 0
	case models.AlertBudget:
		if budget.DailyBudget <= 0 {
			return 0, false
		}
		return budget.SpentToday / budget.DailyBudget * 100, true
	default:
		return 0, false
	}
}

func alertMessage(t models.AlertType, observed, threshold float64) string {
	switch t {
	case models.AlertErrorRate:
		return fmt.Sprintf("error rate %.1f%% exceeds %.1f%%", observed, threshold)
	case models.AlertLatency:
		return fmt.Sprintf("average latency %.0fms exceeds %.0fms", observed, threshold)
	case models.AlertCostRate:
		return fmt.Sprintf("hourly cost $%.4f exceeds $%.4f", observed, threshold)
	case models.AlertCacheMissRate:
		return fmt.Sprintf("cache miss rate %.1f%% exceeds %.1f%%", observed, threshold)
	case models.AlertBudget:
		return fmt.Sprintf("daily budget %.1f%% consumed, threshold %.1f%%", observed, threshold)
	default:
		return fmt.Sprintf("observed %.2f exceeds threshold %.2f", observed, threshold)
	}
}

// ActiveAlerts returns unresolved alerts, newest first.
func (m *Monitor) ActiveAlerts() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Alert
	for _, a := range m.alerts {
		if a.Status != models.AlertResolved {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// AcknowledgeAlert marks a firing alert as acknowledged.
func (m *Monitor) AcknowledgeAlert(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.Status != models.AlertFiring {
		return false
	}
	a.Status = models.AlertAcknowledged
	return true
}

// ResolveAlert marks an alert as resolved.
func (m *Monitor) ResolveAlert(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.Status == models.AlertResolved {
		return false
	}
	a.Status = models.AlertResolved
	a.ResolvedAt = m.now()
	return true
}
