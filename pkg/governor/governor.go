// Package governor runs the cost-governed pipeline in front of paid
// generation calls: normalize, cache, coalesce, rate limit, pick a model,
// call the backend, settle the ledger, and record what happened.
package governor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/backend"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/cache"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/dedup"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/monitor"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/normalize"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/ratelimit"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/selector"
)

// Ledger action names, matching the configured rate-limit actions.
const (
	ActionText  = "text_generation"
	ActionImage = "image_generation"
)

// RateLimitError is returned when a request is denied by the rate limiter
// or cost ledger. Callers can surface Decision.RetryAfter to clients.
type RateLimitError struct {
	Decision models.RateDecision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("request denied (%s), retry after %s", e.Decision.Reason, e.Decision.RetryAfter)
}

// Generator abstracts the retrying backend boundary.
type Generator interface {
	Do(ctx context.Context, model string, req *models.GenerationRequest) (*models.RawContent, bool, error)
}

// Governor wires the pipeline stages together. The cache, coalescer, and
// limiter may each be nil; a missing stage is skipped rather than failing
// the request, except that a present limiter's denial always blocks.
type Governor struct {
	store     *cache.Store
	coalescer *dedup.Coalescer
	limiter   *ratelimit.Limiter
	monitor   *monitor.Monitor
	selector  *selector.Selector
	generator Generator
	cacheTTL  time.Duration

	now func() time.Time
}

// New assembles a Governor. monitor, selector, and generator are required.
func New(store *cache.Store, coalescer *dedup.Coalescer, limiter *ratelimit.Limiter,
	mon *monitor.Monitor, sel *selector.Selector, gen Generator, cacheTTL time.Duration) *Governor {
	return &Governor{
		store:     store,
		coalescer: coalescer,
		limiter:   limiter,
		monitor:   mon,
		selector:  sel,
		generator: gen,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func actionFor(ct models.ContentType) string {
	if ct == models.ContentImage {
		return ActionImage
	}
	return ActionText
}

// GovernGeneration runs one request through the full pipeline.
func (g *Governor) GovernGeneration(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	start := g.now()
	action := actionFor(req.ContentType)
	fp := normalize.Fingerprint(req.ContentType, req.Prompt, req.Options)

	// Normalized inputs go upstream so equivalent phrasings hit the
	// cache the same way they are generated.
	normReq := *req
	normReq.Prompt = fp.Prompt
	normReq.Options = normalize.Options(req.ContentType, req.Options)

	if g.store != nil {
		if data, ok := g.store.Get(fp); ok {
			latency := g.now().Sub(start)
			g.logUsage(req.UserID, action, "", 0, latency, 200, true)
			return &models.GenerationResult{
				Data:      data,
				FromCache: true,
				Latency:   latency,
			}, nil
		}
	}

	sel, err := g.selector.Select(req.ContentType, models.SelectionContext{
		Priority:   req.Priority,
		Tier:       req.Tier,
		Difficulty: normReq.Options.Difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}

	if g.limiter != nil {
		decision := g.limiter.CheckAndReserve(req.UserID, action, req.Tier, sel.EstimatedCost)
		if !decision.Allowed {
			monitor.RateLimitDenials.WithLabelValues(string(decision.Reason)).Inc()
			g.logUsage(req.UserID, action, sel.Model, 0, g.now().Sub(start), 429, false)
			return nil, &RateLimitError{Decision: decision}
		}
	}

	raw, usedFallback, coalesced, err := g.generate(ctx, fp, sel.Model, &normReq)
	if err != nil {
		g.selector.RecordUsage(sel.Model, 0, g.now().Sub(start), false)
		g.logUsage(req.UserID, action, sel.Model, 0, g.now().Sub(start), statusOf(err), false)
		return nil, err
	}

	// Thin or empty output is worth nothing to the caller; swap in
	// placeholder content rather than caching a dud.
	if len(raw.Data) == 0 {
		raw = backend.Placeholder(sel.Model, &normReq)
		usedFallback = true
	}

	cost := g.price(raw, &normReq, sel.Model)
	if usedFallback || coalesced {
		// Fallback content is free; a coalesced follower rides on the
		// leader's upstream call, which already settled the cost.
		cost = 0
	}
	if g.limiter != nil && cost > 0 {
		g.limiter.Commit(req.UserID, action, cost)
	}

	latency := g.now().Sub(start)
	if !coalesced {
		g.selector.RecordUsage(sel.Model, cost, latency, !usedFallback)
	}
	g.logUsage(req.UserID, action, raw.Model, cost, latency, raw.StatusCode, false)

	return &models.GenerationResult{
		Data:           raw.Data,
		Model:          raw.Model,
		FromCache:      false,
		Fallback:       usedFallback,
		Cost:           cost,
		Latency:        latency,
		GenerationTime: latency,
	}, nil
}

// generate runs the backend call behind the coalescer and writes the
// result through the cache. Fallback content is served but never cached,
// so a healthy provider can fill the slot later.
func (g *Governor) generate(ctx context.Context, fp models.Fingerprint, model string, req *models.GenerationRequest) (raw *models.RawContent, fallback, coalesced bool, err error) {
	var leaderRaw *models.RawContent
	var leaderFallback bool

	run := func(ctx context.Context) ([]byte, error) {
		genStart := g.now()
		out, fb, genErr := g.generator.Do(ctx, model, req)
		if genErr != nil {
			return nil, genErr
		}
		leaderRaw = out
		leaderFallback = fb
		if g.store != nil && !fb && len(out.Data) > 0 {
			g.store.Set(fp, out.Data, g.cacheTTL)
			g.store.ObserveGeneration(g.now().Sub(genStart))
		}
		return out.Data, nil
	}

	var data []byte
	if g.coalescer != nil {
		data, err = g.coalescer.Deduplicate(ctx, fp.Key(), run)
	} else {
		data, err = run(ctx)
	}
	if err != nil {
		return nil, false, false, err
	}

	// Only the caller whose closure ran sees leaderRaw; everyone else
	// was coalesced onto that flight and gets the shared bytes.
	if leaderRaw != nil {
		return leaderRaw, leaderFallback, false, nil
	}
	return &models.RawContent{Data: data, Model: model, StatusCode: 200}, false, true, nil
}

// price settles the actual cost of a completed call.
func (g *Governor) price(raw *models.RawContent, req *models.GenerationRequest, model string) float64 {
	cm := g.monitor.CostModel()
	mult := 1.0
	if p, ok := g.selector.Profile(model); ok {
		mult = p.CostMultiplier
	}
	if req.ContentType == models.ContentImage {
		return cm.ImageCost(req.Options.Width, req.Options.Height, mult)
	}
	return cm.TextCost(raw.Tokens, mult)
}

func (g *Governor) logUsage(userID, endpoint, model string, cost float64, latency time.Duration, status int, cacheHit bool) {
	g.monitor.LogUsage(models.UsageLogEntry{
		UserID:     userID,
		Endpoint:   endpoint,
		Model:      model,
		Cost:       cost,
		Latency:    latency,
		StatusCode: status,
		CacheHit:   cacheHit,
	})
}

func statusOf(err error) int {
	var pe *backend.ProviderError
	if errors.As(err, &pe) && pe.StatusCode > 0 {
		return pe.StatusCode
	}
	return 500
}

// UsageSnapshot reports aggregate usage for one user, or everyone when
// userID is empty.
func (g *Governor) UsageSnapshot(userID string, windowHours int) models.UsageStats {
	if userID == "" {
		return g.monitor.GetStats(windowHours)
	}
	return g.monitor.GetUserStats(userID, windowHours)
}

// BudgetStatus reports spend against the configured daily budget.
func (g *Governor) BudgetStatus() models.BudgetStatus {
	return g.monitor.BudgetStatus()
}

// CacheStats reports cache effectiveness counters.
func (g *Governor) CacheStats() models.CacheStats {
	if g.store == nil {
		return models.CacheStats{}
	}
	return g.store.Stats()
}

// InvalidateCache drops cached entries matching the filter from both tiers.
func (g *Governor) InvalidateCache(filter models.CacheFilter) int {
	if g.store == nil {
		return 0
	}
	n := g.store.Invalidate(filter)
	log.Printf("cache invalidation removed %d entries", n)
	return n
}

// ClearCache empties both cache tiers.
func (g *Governor) ClearCache() {
	if g.store != nil {
		g.store.Clear()
	}
}

// ActiveAlerts lists unresolved alerts, newest first.
func (g *Governor) ActiveAlerts() []models.Alert {
	return g.monitor.ActiveAlerts()
}

// AcknowledgeAlert moves a firing alert to acknowledged.
func (g *Governor) AcknowledgeAlert(id string) bool {
	return g.monitor.AcknowledgeAlert(id)
}

// ResolveAlert closes out an alert.
func (g *Governor) ResolveAlert(id string) bool {
	return g.monitor.ResolveAlert(id)
}
