package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobmatch/internal/model"
)

// ProviderRateLimiter enforces a minimum delay between requests to the same
// board provider. Fetches within one run may fan out concurrently; the
// limiter keeps each provider's request rate polite.
type ProviderRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: provider name
	minDelay time.Duration
}

// NewProviderRateLimiter creates a rate limiter that enforces minDelay
// between consecutive requests to the same provider.
func NewProviderRateLimiter(minDelay time.Duration) *ProviderRateLimiter {
	return &ProviderRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given provider. Returns an error if the context is cancelled while waiting.
func (r *ProviderRateLimiter) Wait(ctx context.Context, provider string) error {
	r.mu.Lock()
	last, ok := r.lastCall[provider]
	now := time.Now()

	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[provider] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before sleeping so concurrent board fetches to
	// the same provider queue up behind each other.
	wakeAt := last.Add(r.minDelay)
	r.lastCall[provider] = wakeAt
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", provider, ctx.Err())
	case <-time.After(time.Until(wakeAt)):
	}

	return nil
}

// LimitedFetcher is a decorator that enforces provider-level rate limiting
// before delegating to the wrapped JobFetcher.
type LimitedFetcher struct {
	inner    model.JobFetcher
	limiter  *ProviderRateLimiter
	provider string
}

// NewLimitedFetcher wraps a JobFetcher with provider-level rate limiting.
// All fetchers targeting the same provider should share the same limiter.
func NewLimitedFetcher(inner model.JobFetcher, limiter *ProviderRateLimiter, provider string) *LimitedFetcher {
	return &LimitedFetcher{
		inner:    inner,
		limiter:  limiter,
		provider: provider,
	}
}

// FetchJobs waits for the rate limiter to allow a request, then delegates to
// the wrapped fetcher.
func (f *LimitedFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if err := f.limiter.Wait(ctx, f.provider); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
