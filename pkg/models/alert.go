package models

import "time"

// AlertType identifies what an alert rule watches.
type AlertType string

const (
	AlertErrorRate     AlertType = "error_rate"
	AlertLatency       AlertType = "latency"
	AlertCostRate      AlertType = "cost_rate"
	AlertCacheMissRate AlertType = "cache_miss_rate"
	AlertBudget        AlertType = "budget"
)

// AlertSeverity ranks alerts.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus is the alert lifecycle: firing -> acknowledged -> resolved.
type AlertStatus string

const (
	AlertFiring       AlertStatus = "firing"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is one fired threshold breach.
type Alert struct {
	ID            string        `json:"id"`
	Type          AlertType     `json:"type"`
	Severity      AlertSeverity `json:"severity"`
	Status        AlertStatus   `json:"status"`
	Message       string        `json:"message"`
	ObservedValue float64       `json:"observed_value"`
	Threshold     float64       `json:"threshold"`
	FiredAt       time.Time     `json:"fired_at"`
	ResolvedAt    time.Time     `json:"resolved_at,omitempty"`
}

// AlertRule configures one threshold check with a per-(type, severity)
// cooldown to prevent alert storms.
type AlertRule struct {
	Type      AlertType     `json:"type" yaml:"type"`
	Severity  AlertSeverity `json:"severity" yaml:"severity"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
	Cooldown  time.Duration `json:"cooldown" yaml:"cooldown"`
}
