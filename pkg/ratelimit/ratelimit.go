// Package ratelimit enforces per-user, per-action windowed ceilings on both
// request count and monetary cost, with a short burst sub-window capping
// rapid fire independently of the main window's remaining budget.
//
// Reservation and settlement are split: CheckAndReserve counts the request
// and checks the estimated cost against the ceiling, and Commit accrues the
// actual cost once it is known. A request can therefore land over budget
// after the fact; the next check pays for it. Counters only grow within a
// window and reset only by rollover.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

type window struct {
	start        time.Time
	requestCount int
	costAccrued  float64
	burstStart   time.Time
	burstCount   int
}

// Limiter holds one active window per (user, action). Rollover is lazy: a
// new window materializes on first access after the previous one elapses, so
// idle users never accumulate counters.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	actions map[string]config.ActionLimit

	now func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Limiter. A cleanupInterval of zero disables the background
// sweep that drops long-idle windows.
func New(actions map[string]config.ActionLimit, cleanupInterval time.Duration) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		actions: actions,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		l.wg.Add(1)
		go l.cleanupLoop(cleanupInterval)
	}
	return l
}

// CheckAndReserve decides whether a request may proceed. On allow it counts
// the request against the main and burst windows; cost is only checked here
// (against the estimate) and accrued later by Commit.
func (l *Limiter) CheckAndReserve(userID, action string, tier models.Tier, estimatedCost float64) models.RateDecision {
	limit, ok := l.actions[action]
	if !ok {
		// No configured ceiling for this action.
		return models.RateDecision{Allowed: true, Tier: tier, Remaining: -1}
	}

	mult := tier.Multiplier()
	maxRequests := scaled(limit.MaxRequests, mult)
	burstMax := scaled(limit.BurstMax, mult)
	costCeiling := limit.MaxCost * mult

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windowLocked(userID, action, limit, now)
	resetAt := w.start.Add(limit.Window)

	deny := func(reason models.DenyReason) models.RateDecision {
		return models.RateDecision{
			Allowed:       false,
			Tier:          tier,
			Remaining:     maxRequests - w.requestCount,
			CostRemaining: costCeiling - w.costAccrued,
			ResetAt:       resetAt,
			RetryAfter:    resetAt.Sub(now),
			Reason:        reason,
		}
	}

	if w.requestCount >= maxRequests {
		return deny(models.DenyRateLimit)
	}
	if w.costAccrued+estimatedCost > costCeiling {
		return deny(models.DenyCostLimit)
	}
	if w.burstCount >= burstMax {
		return deny(models.DenyRateLimit)
	}

	w.requestCount++
	w.burstCount++

	return models.RateDecision{
		Allowed:       true,
		Tier:          tier,
		Remaining:     maxRequests - w.requestCount,
		CostRemaining: costCeiling - w.costAccrued,
		ResetAt:       resetAt,
	}
}

// Commit reconciles the ledger with the actual cost of a completed request.
func (l *Limiter) Commit(userID, action string, actualCost float64) {
	limit, ok := l.actions[action]
	if !ok {
		return
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windowLocked(userID, action, limit, now)
	w.costAccrued += actualCost
}

// windowLocked returns the active window for (user, action), materializing a
// fresh one when the previous window or burst sub-window has elapsed.
// Caller holds l.mu.
func (l *Limiter) windowLocked(userID, action string, limit config.ActionLimit, now time.Time) *window {
	key := userID + "|" + action
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= limit.Window {
		w = &window{start: now, burstStart: now}
		l.windows[key] = w
		return w
	}
	if now.Sub(w.burstStart) >= limit.BurstWindow {
		w.burstStart = now
		w.burstCount = 0
	}
	return w
}

func scaled(base int, mult float64) int {
	n := int(float64(base) * mult)
	if n < 1 {
		n = 1
	}
	return n
}

// Cleanup drops windows idle past twice their action's window length and
// returns the count removed.
func (l *Limiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		action := key[strings.LastIndex(key, "|")+1:]
		limit, ok := l.actions[action]
		if !ok || now.Sub(w.start) >= 2*limit.Window {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	defer l.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Close stops the cleanup loop.
func (l *Limiter) Close() error {
	close(l.done)
	l.wg.Wait()
	return nil
}
