// Package cache is the two-tier response cache: a bounded in-memory fast
// tier in front of an optional persistent SQLite tier. Writes go through to
// both tiers; a tier-1 miss consults tier 2 and promotes on hit.
//
// Get and Invalidate never surface infrastructure errors: a broken
// persistent tier degrades to a cache miss and a log line.
package cache

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/cache/sqlite"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// evictFraction is the share of tier-1 entries dropped in one eviction pass.
// Batch eviction amortizes the cost instead of paying strict LRU on every set.
const evictFraction = 0.2

type entry struct {
	data           []byte
	createdAt      time.Time
	ttl            time.Duration
	accessCount    int64
	lastAccessedAt time.Time
	sizeBytes      int
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Store is the two-tier cache.
type Store struct {
	mu         sync.Mutex
	entries    map[models.Fingerprint]*entry
	maxEntries int

	persistent *sqlite.Cache // nil when the persistent tier is disabled

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	genTotal time.Duration
	genCount int64

	now func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Store. persistent may be nil. A sweepInterval of zero
// disables the background expiry sweep.
func New(maxEntries int, persistent *sqlite.Cache, sweepInterval time.Duration) *Store {
	s := &Store{
		entries:    make(map[models.Fingerprint]*entry),
		maxEntries: maxEntries,
		persistent: persistent,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Get returns the cached value for a fingerprint, consulting tier 2 and
// promoting on a tier-1 miss. Never returns an error.
func (s *Store) Get(fp models.Fingerprint) ([]byte, bool) {
	now := s.now()

	s.mu.Lock()
	if e, ok := s.entries[fp]; ok {
		if e.expired(now) {
			delete(s.entries, fp)
		} else {
			e.accessCount++
			e.lastAccessedAt = now
			data := e.data
			s.mu.Unlock()
			s.hits.Add(1)
			return data, true
		}
	}
	s.mu.Unlock()

	if s.persistent != nil {
		if data, createdAt, ttl, ok := s.persistent.Get(fp, now); ok {
			s.promote(fp, data, createdAt, ttl, now)
			s.hits.Add(1)
			return data, true
		}
	}

	s.misses.Add(1)
	return nil, false
}

// promote copies a tier-2 hit into tier 1, keeping its original creation
// time so the TTL clock does not restart.
func (s *Store) promote(fp models.Fingerprint, data []byte, createdAt time.Time, ttl time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fp] = &entry{
		data:           data,
		createdAt:      createdAt,
		ttl:            ttl,
		accessCount:    1,
		lastAccessedAt: now,
		sizeBytes:      len(data),
	}
	s.evictLocked()
}

// Set stores a value in tier 1 and writes through to tier 2.
func (s *Store) Set(fp models.Fingerprint, data []byte, ttl time.Duration) {
	now := s.now()

	s.mu.Lock()
	s.entries[fp] = &entry{
		data:           data,
		createdAt:      now,
		ttl:            ttl,
		lastAccessedAt: now,
		sizeBytes:      len(data),
	}
	s.evictLocked()
	s.mu.Unlock()

	if s.persistent != nil {
		if err := s.persistent.Put(fp, data, ttl, now); err != nil {
			log.Printf("cache: persistent write failed for %s: %v", fp.Key(), err)
		}
	}
}

// evictLocked drops the least-recently-accessed 20% when tier 1 is over
// capacity. Caller holds s.mu.
func (s *Store) evictLocked() {
	if len(s.entries) <= s.maxEntries {
		return
	}

	type aged struct {
		fp   models.Fingerprint
		last time.Time
	}
	byAge := make([]aged, 0, len(s.entries))
	for fp, e := range s.entries {
		byAge = append(byAge, aged{fp, e.lastAccessedAt})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].last.Before(byAge[j].last) })

	n := int(float64(len(byAge)) * evictFraction)
	if n < 1 {
		n = 1
	}
	for _, a := range byAge[:n] {
		delete(s.entries, a.fp)
	}
	s.evictions.Add(int64(n))
}

// GetOrGenerate is the primary caller entry point: return the cached value,
// or invoke the generator, time it, store the result, and return it.
func (s *Store) GetOrGenerate(ctx context.Context, fp models.Fingerprint, gen func(context.Context) ([]byte, error), ttl time.Duration) (data []byte, fromCache bool, genTime time.Duration, err error) {
	if data, ok := s.Get(fp); ok {
		return data, true, 0, nil
	}

	start := s.now()
	data, err = gen(ctx)
	genTime = s.now().Sub(start)
	if err != nil {
		return nil, false, genTime, err
	}

	s.Set(fp, data, ttl)
	s.ObserveGeneration(genTime)

	return data, false, genTime, nil
}

// ObserveGeneration folds one cache-miss generation time into the average
// reported by Stats. Callers that populate the cache through Set rather than
// GetOrGenerate record their timings here.
func (s *Store) ObserveGeneration(d time.Duration) {
	s.mu.Lock()
	s.genTotal += d
	s.genCount++
	s.mu.Unlock()
}

// Invalidate removes entries matching the filter from both tiers and returns
// the count removed. Failures degrade to a partial count and a log line.
func (s *Store) Invalidate(filter models.CacheFilter) int {
	s.mu.Lock()
	memRemoved := 0
	for fp := range s.entries {
		if filter.Matches(fp) {
			delete(s.entries, fp)
			memRemoved++
		}
	}
	s.mu.Unlock()

	if s.persistent != nil {
		n, err := s.persistent.Invalidate(filter)
		if err != nil {
			log.Printf("cache: persistent invalidate failed: %v", err)
			return memRemoved
		}
		// Tier 1 is a subset of tier 2 under write-through, so the
		// persistent count covers both.
		if int(n) > memRemoved {
			return int(n)
		}
	}
	return memRemoved
}

// Clear empties both tiers.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[models.Fingerprint]*entry)
	s.mu.Unlock()

	if s.persistent != nil {
		if err := s.persistent.Clear(); err != nil {
			log.Printf("cache: persistent clear failed: %v", err)
		}
	}
}

// Stats reports combined cache metrics.
func (s *Store) Stats() models.CacheStats {
	s.mu.Lock()
	entries := int64(len(s.entries))
	var avgGen time.Duration
	if s.genCount > 0 {
		avgGen = s.genTotal / time.Duration(s.genCount)
	}
	s.mu.Unlock()

	hits := s.hits.Load()
	misses := s.misses.Load()
	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}

	st := models.CacheStats{
		Entries:           entries,
		Hits:              hits,
		Misses:            misses,
		Evictions:         s.evictions.Load(),
		HitRate:           hitRate,
		AvgGenerationTime: avgGen,
	}
	if s.persistent != nil {
		if n, err := s.persistent.Count(); err == nil {
			st.PersistentEntries = n
		}
	}
	return st
}

// SweepExpired removes TTL-expired entries from both tiers.
func (s *Store) SweepExpired() {
	now := s.now()

	s.mu.Lock()
	for fp, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, fp)
		}
	}
	s.mu.Unlock()

	if s.persistent != nil {
		if _, err := s.persistent.Sweep(now); err != nil {
			log.Printf("cache: persistent sweep failed: %v", err)
		}
	}
}

func (s *Store) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}

// Close stops the sweep loop and closes the persistent tier.
func (s *Store) Close() error {
	close(s.done)
	s.wg.Wait()
	if s.persistent != nil {
		return s.persistent.Close()
	}
	return nil
}
