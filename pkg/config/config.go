package config

import (
	"fmt"
	"os"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all sparkgov configuration.
type Config struct {
	Listen    string                `yaml:"listen"`
	DBPath    string                `yaml:"db_path"`
	Cache     CacheConfig           `yaml:"cache"`
	Dedup     DedupConfig           `yaml:"dedup"`
	RateLimit RateLimitConfig       `yaml:"rate_limit"`
	Monitor   MonitorConfig         `yaml:"monitor"`
	Backend   BackendConfig         `yaml:"backend"`
	Models    []models.ModelProfile `yaml:"models"`
}

// CacheConfig controls both cache tiers.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Persistent    bool          `yaml:"persistent"`
}

// DedupConfig controls in-flight request coalescing.
type DedupConfig struct {
	MaxFlightAge  time.Duration `yaml:"max_flight_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ActionLimit defines the ceilings for one action before tier scaling.
type ActionLimit struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
	MaxCost     float64       `yaml:"max_cost"`
	BurstWindow time.Duration `yaml:"burst_window"`
	BurstMax    int           `yaml:"burst_max"`
}

// RateLimitConfig maps actions to their limits.
type RateLimitConfig struct {
	Enabled bool                   `yaml:"enabled"`
	Actions map[string]ActionLimit `yaml:"actions"`
}

// CostRates feeds the monitor's cost model.
type CostRates struct {
	TextPer1KTokens float64            `yaml:"text_per_1k_tokens"`
	ImageBase       float64            `yaml:"image_base"`
	SizeMultipliers map[string]float64 `yaml:"size_multipliers"`
}

// MonitorConfig controls the usage log, alerting, and budget projection.
type MonitorConfig struct {
	LogCapacity   int                `yaml:"log_capacity"`
	EvalInterval  time.Duration      `yaml:"eval_interval"`
	DailyBudget   float64            `yaml:"daily_budget"`
	Rates         CostRates          `yaml:"rates"`
	Rules         []models.AlertRule `yaml:"rules"`
	SinkEnabled   bool               `yaml:"sink_enabled"`
	RetentionDays int                `yaml:"retention_days"`
}

// BackendConfig bounds upstream calls. An empty BaseURL selects the
// built-in placeholder generator instead of a remote provider.
type BackendConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8090",
		DBPath: "sparkgov.db",
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           time.Hour,
			MaxEntries:    1000,
			SweepInterval: 5 * time.Minute,
			Persistent:    true,
		},
		Dedup: DedupConfig{
			MaxFlightAge:  60 * time.Second,
			SweepInterval: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Actions: map[string]ActionLimit{
				"text_generation": {
					Window:      time.Minute,
					MaxRequests: 10,
					MaxCost:     0.50,
					BurstWindow: 10 * time.Second,
					BurstMax:    4,
				},
				"image_generation": {
					Window:      time.Hour,
					MaxRequests: 20,
					MaxCost:     2.00,
					BurstWindow: 10 * time.Second,
					BurstMax:    2,
				},
			},
		},
		Monitor: MonitorConfig{
			LogCapacity:  10000,
			EvalInterval: time.Minute,
			DailyBudget:  25.0,
			Rates: CostRates{
				TextPer1KTokens: 0.002,
				ImageBase:       0.04,
				SizeMultipliers: map[string]float64{
					"256x256":   0.5,
					"512x512":   1.0,
					"1024x1024": 2.0,
				},
			},
			Rules: []models.AlertRule{
				{Type: models.AlertErrorRate, Severity: models.SeverityWarning, Threshold: 5, Cooldown: 10 * time.Minute},
				{Type: models.AlertErrorRate, Severity: models.SeverityCritical, Threshold: 20, Cooldown: 5 * time.Minute},
				{Type: models.AlertLatency, Severity: models.SeverityWarning, Threshold: 5000, Cooldown: 10 * time.Minute},
				{Type: models.AlertCostRate, Severity: models.SeverityWarning, Threshold: 1.0, Cooldown: 30 * time.Minute},
				{Type: models.AlertBudget, Severity: models.SeverityCritical, Threshold: 90, Cooldown: time.Hour},
			},
			SinkEnabled:   true,
			RetentionDays: 30,
		},
		Backend: BackendConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Models: DefaultModels(),
	}
}

// DefaultModels returns the built-in model profiles used when the config
// file does not override them.
func DefaultModels() []models.ModelProfile {
	return []models.ModelProfile{
		{Name: "swift-mini", ContentType: models.ContentText, CostMultiplier: 0.5, QualityScore: 0.65, SpeedScore: 0.95, BaseLatency: 800 * time.Millisecond},
		{Name: "swift-standard", ContentType: models.ContentText, CostMultiplier: 1.0, QualityScore: 0.80, SpeedScore: 0.75, BaseLatency: 1500 * time.Millisecond},
		{Name: "swift-pro", ContentType: models.ContentText, CostMultiplier: 3.0, QualityScore: 0.95, SpeedScore: 0.45, BaseLatency: 4 * time.Second},
		{Name: "canvas-draft", ContentType: models.ContentImage, CostMultiplier: 1.0, QualityScore: 0.70, SpeedScore: 0.85, BaseLatency: 3 * time.Second},
		{Name: "canvas-hd", ContentType: models.ContentImage, CostMultiplier: 2.5, QualityScore: 0.92, SpeedScore: 0.50, BaseLatency: 8 * time.Second},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Monitor.LogCapacity <= 0 {
		return fmt.Errorf("monitor.log_capacity must be positive, got %d", c.Monitor.LogCapacity)
	}
	for action, l := range c.RateLimit.Actions {
		if l.Window <= 0 {
			return fmt.Errorf("rate_limit.actions.%s: window must be positive", action)
		}
		if l.BurstWindow >= l.Window {
			return fmt.Errorf("rate_limit.actions.%s: burst window must be shorter than the main window", action)
		}
	}
	for _, m := range c.Models {
		if m.Name == "" {
			return fmt.Errorf("model profile with empty name")
		}
	}
	return nil
}
