// Package selector picks an upstream model variant per request by blending
// static model profiles with learned per-model performance. Recording
// outcomes here is the only place the system adapts its future behavior.
package selector

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Scoring weights: the caller's stated priority dominates at 0.5, the other
// two dimensions split the rest.
const (
	primaryWeight   = 0.5
	secondaryWeight = 0.25
)

// Learned-metric adjustments.
const (
	successWeight    = 0.30
	latencyPenalty   = 0.10
	costPenalty      = 0.10
	latencyScale     = 10.0 // seconds at which the latency penalty saturates
	costScale        = 0.10 // dollars at which the cost penalty saturates
	tierCostPenalty  = 0.15 // expensive model for a low-paying tier
	qualityPenalty   = 0.20 // weak model for advanced content
	expensiveCutoff  = 1.5
	weakQualityScore = 0.7
)

// Selector scores candidates and learns from recorded outcomes.
type Selector struct {
	mu       sync.Mutex
	profiles map[string]models.ModelProfile
	byType   map[models.ContentType][]models.ModelProfile
	metrics  map[string]*models.ModelMetric

	rates config.CostRates

	now func() time.Time
}

// New creates a Selector over the given model profiles.
func New(profiles []models.ModelProfile, rates config.CostRates) *Selector {
	s := &Selector{
		profiles: make(map[string]models.ModelProfile, len(profiles)),
		byType:   make(map[models.ContentType][]models.ModelProfile),
		metrics:  make(map[string]*models.ModelMetric),
		rates:    rates,
		now:      time.Now,
	}
	for _, p := range profiles {
		s.profiles[p.Name] = p
		s.byType[p.ContentType] = append(s.byType[p.ContentType], p)
	}
	return s
}

type scored struct {
	profile models.ModelProfile
	score   float64
	reason  string
}

// Select scores every candidate for the content type and returns the winner
// with the next three as ranked alternatives.
func (s *Selector) Select(contentType models.ContentType, ctx models.SelectionContext) (models.ModelSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := s.byType[contentType]
	if len(candidates) == 0 {
		return models.ModelSelection{}, fmt.Errorf("no model profiles for content type %q", contentType)
	}

	ranked := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		score, reason := s.scoreLocked(p, ctx)
		ranked = append(ranked, scored{profile: p, score: score, reason: reason})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	best := ranked[0]

	sel := models.ModelSelection{
		Model:            best.profile.Name,
		Reason:           best.reason,
		Confidence:       confidence(ranked),
		EstimatedCost:    s.estimatedCostLocked(best.profile),
		EstimatedLatency: s.estimatedLatencyLocked(best.profile),
		EstimatedQuality: best.profile.QualityScore,
	}
	for _, alt := range ranked[1:] {
		if len(sel.Alternatives) == 3 {
			break
		}
		sel.Alternatives = append(sel.Alternatives, models.ModelCandidate{
			Name:   alt.profile.Name,
			Score:  alt.score,
			Reason: alt.reason,
		})
	}
	return sel, nil
}

// scoreLocked computes one candidate's score. Caller holds s.mu.
func (s *Selector) scoreLocked(p models.ModelProfile, ctx models.SelectionContext) (float64, string) {
	wSpeed, wQuality, wCost := weights(ctx.Priority)

	mult := p.CostMultiplier
	if mult <= 0 {
		mult = 1
	}
	costScore := 1.0 / mult
	if costScore > 1 {
		costScore = 1
	}

	score := wSpeed*p.SpeedScore + wQuality*p.QualityScore + wCost*costScore
	reason := fmt.Sprintf("%s priority: speed %.2f, quality %.2f, cost x%.1f",
		priorityName(ctx.Priority), p.SpeedScore, p.QualityScore, p.CostMultiplier)

	if m, ok := s.metrics[p.Name]; ok && m.UsageCount > 0 {
		// Penalize the shortfall from a perfect success rate so a failing
		// model drops below fresh candidates instead of everyone drifting up.
		score -= successWeight * (1 - m.SuccessRate)
		score -= latencyPenalty * saturate(m.AverageLatency.Seconds()/latencyScale)
		score -= costPenalty * saturate(m.AverageCost/costScale)
		reason += fmt.Sprintf("; observed success %.0f%%", m.SuccessRate*100)
	}

	if (ctx.Tier == models.TierFree || ctx.Tier == models.TierAnonymous) && p.CostMultiplier > expensiveCutoff {
		score -= tierCostPenalty
		reason += "; cost-penalized for tier"
	}
	if ctx.Difficulty == models.DifficultyAdvanced && p.QualityScore < weakQualityScore {
		score -= qualityPenalty
		reason += "; quality-penalized for advanced content"
	}

	return score, reason
}

func weights(p models.Priority) (speed, quality, cost float64) {
	switch p {
	case models.PrioritySpeed:
		return primaryWeight, secondaryWeight, secondaryWeight
	case models.PriorityQuality:
		return secondaryWeight, primaryWeight, secondaryWeight
	case models.PriorityCost:
		return secondaryWeight, secondaryWeight, primaryWeight
	default:
		// No stated priority: balance, with a slight lean to quality.
		return 0.3, 0.4, 0.3
	}
}

func priorityName(p models.Priority) string {
	if p == "" {
		return "balanced"
	}
	return string(p)
}

func saturate(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// confidence grows with the winner's margin over the runner-up.
func confidence(ranked []scored) float64 {
	if len(ranked) == 1 {
		return 0.9
	}
	gap := ranked[0].score - ranked[1].score
	c := 0.5 + gap*2
	if c > 0.95 {
		c = 0.95
	}
	if c < 0.5 {
		c = 0.5
	}
	return c
}

// estimatedCostLocked prefers the learned average cost once the model has
// real usage, falling back to the static multiplier over the base rates.
func (s *Selector) estimatedCostLocked(p models.ModelProfile) float64 {
	if m, ok := s.metrics[p.Name]; ok && m.UsageCount > 0 {
		return m.AverageCost
	}
	switch p.ContentType {
	case models.ContentImage:
		return s.rates.ImageBase * p.CostMultiplier
	default:
		// Priced as a typical 500-token completion.
		return 0.5 * s.rates.TextPer1KTokens * p.CostMultiplier
	}
}

func (s *Selector) estimatedLatencyLocked(p models.ModelProfile) time.Duration {
	if m, ok := s.metrics[p.Name]; ok && m.UsageCount > 0 {
		return m.AverageLatency
	}
	return p.BaseLatency
}

// RecordUsage folds an observed outcome into the model's running averages.
// Incremental means keep the state O(1) per model instead of retaining a
// history buffer.
func (s *Selector) RecordUsage(model string, actualCost float64, actualLatency time.Duration, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[model]
	if !ok {
		m = &models.ModelMetric{}
		s.metrics[model] = m
	}

	n := float64(m.UsageCount)
	m.AverageCost = (m.AverageCost*n + actualCost) / (n + 1)
	m.AverageLatency = time.Duration((float64(m.AverageLatency)*n + float64(actualLatency)) / (n + 1))
	sv := 0.0
	if success {
		sv = 1.0
	}
	m.SuccessRate = (m.SuccessRate*n + sv) / (n + 1)
	m.UsageCount++
	m.LastUsedAt = s.now()
}

// Metric returns a copy of the learned state for a model.
func (s *Selector) Metric(model string) (models.ModelMetric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[model]
	if !ok {
		return models.ModelMetric{}, false
	}
	return *m, true
}

// Profile returns the static profile for a model.
func (s *Selector) Profile(model string) (models.ModelProfile, bool) {
	p, ok := s.profiles[model]
	return p, ok
}
