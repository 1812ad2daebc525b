// Package dedup coalesces concurrent identical requests. For a given key at
// most one generator runs at a time; every caller that arrives while it is
// in flight subscribes to the same outcome instead of issuing a second call.
package dedup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is delivered to every subscriber when a flight outlives its
// maximum age, usually because the upstream call hung.
var ErrTimeout = errors.New("in-flight request timed out")

type outcome struct {
	data []byte
	err  error
}

type flight struct {
	startedAt   time.Time
	subscribers []chan outcome
}

// Coalescer tracks in-flight requests by key.
type Coalescer struct {
	mu      sync.Mutex
	flights map[string]*flight

	callTimeout time.Duration // hard deadline on the generator itself
	maxAge      time.Duration // flights older than this are force-expired

	now func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Coalescer. callTimeout bounds each generator invocation;
// maxAge bounds the flight's total lifetime; sweepInterval of zero disables
// the background expiry sweep.
func New(callTimeout, maxAge, sweepInterval time.Duration) *Coalescer {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if maxAge <= 0 {
		maxAge = 60 * time.Second
	}
	c := &Coalescer{
		flights:     make(map[string]*flight),
		callTimeout: callTimeout,
		maxAge:      maxAge,
		now:         time.Now,
		done:        make(chan struct{}),
	}
	if sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Deduplicate runs fn for the first caller of a key and hands every
// concurrent caller of the same key the identical outcome. The flight is
// removed the instant fn settles, so a later request starts fresh.
func (c *Coalescer) Deduplicate(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	ch := make(chan outcome, 1)

	c.mu.Lock()
	f, exists := c.flights[key]
	if exists {
		f.subscribers = append(f.subscribers, ch)
		c.mu.Unlock()
	} else {
		f = &flight{
			startedAt:   c.now(),
			subscribers: []chan outcome{ch},
		}
		c.flights[key] = f
		c.mu.Unlock()

		// The generator runs detached from the first caller's context:
		// its result belongs to every subscriber, so one caller walking
		// away must not cancel it for the rest.
		go c.run(key, f, fn)
	}

	select {
	case out := <-ch:
		return out.data, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coalescer) run(key string, f *flight, fn func(context.Context) ([]byte, error)) {
	callCtx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()

	data, err := fn(callCtx)

	c.mu.Lock()
	current, ok := c.flights[key]
	if !ok || current != f {
		// Force-expired by the sweep; subscribers were already rejected.
		c.mu.Unlock()
		return
	}
	delete(c.flights, key)
	subs := f.subscribers
	c.mu.Unlock()

	for _, ch := range subs {
		ch <- outcome{data: data, err: err}
	}
}

// InFlight returns the number of live flights.
func (c *Coalescer) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.flights)
}

// SweepStale force-expires flights older than maxAge, rejecting all their
// subscribers with ErrTimeout and freeing the slot for a fresh attempt.
func (c *Coalescer) SweepStale() int {
	now := c.now()

	c.mu.Lock()
	var expired []*flight
	for key, f := range c.flights {
		if now.Sub(f.startedAt) > c.maxAge {
			delete(c.flights, key)
			expired = append(expired, f)
		}
	}
	c.mu.Unlock()

	for _, f := range expired {
		for _, ch := range f.subscribers {
			ch <- outcome{err: ErrTimeout}
		}
	}
	return len(expired)
}

func (c *Coalescer) sweepLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.SweepStale()
		}
	}
}

// Close stops the sweep loop.
func (c *Coalescer) Close() error {
	close(c.done)
	c.wg.Wait()
	return nil
}
