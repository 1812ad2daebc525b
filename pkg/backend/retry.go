package backend

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// FallbackFunc builds placeholder content when the provider is exhausted.
type FallbackFunc func(model string, req *models.GenerationRequest) *models.RawContent

// Retrier wraps a Backend with bounded exponential backoff and an
// optional fallback generator.
type Retrier struct {
	backend    Backend
	maxRetries int
	baseDelay  time.Duration
	fallback   FallbackFunc

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier wraps backend. maxRetries counts attempts after the first;
// a nil fallback means exhausted retries surface the last error.
func NewRetrier(b Backend, maxRetries int, baseDelay time.Duration, fallback FallbackFunc) *Retrier {
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	return &Retrier{
		backend:    b,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		fallback:   fallback,
		sleep:      sleepCtx,
	}
}

// Do calls the backend, retrying transient failures. The returned bool is
// true when the fallback generator produced the content.
func (r *Retrier) Do(ctx context.Context, model string, req *models.GenerationRequest) (*models.RawContent, bool, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay << (attempt - 1)
			if err := r.sleep(ctx, delay); err != nil {
				return nil, false, err
			}
		}

		raw, err := r.backend.Generate(ctx, model, req)
		if err == nil {
			return raw, false, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			break
		}
		log.Printf("backend attempt %d failed, retrying: %v", attempt+1, err)
	}

	if r.fallback != nil && shouldFallback(lastErr) {
		log.Printf("backend exhausted, serving fallback content: %v", lastErr)
		return r.fallback(model, req), true, nil
	}
	return nil, false, lastErr
}

// Fall back to placeholder content for transient provider trouble, but
// never mask a caller bug or a credentials problem.
func shouldFallback(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Class {
		case ClassAuthentication, ClassValidation:
			return false
		}
		return true
	}
	return isTimeout(err)
}

func shouldRetry(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return retryable(pe.Class)
	}
	return isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
