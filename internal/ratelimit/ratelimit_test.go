package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobmatch/internal/model"
)

func TestWait_FirstCallImmediate(t *testing.T) {
	r := NewProviderRateLimiter(time.Second)

	start := time.Now()
	if err := r.Wait(context.Background(), model.SourceGreenhouse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first call should not wait, took %v", elapsed)
	}
}

func TestWait_EnforcesDelay(t *testing.T) {
	r := NewProviderRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	r.Wait(ctx, model.SourceGreenhouse)
	start := time.Now()
	r.Wait(ctx, model.SourceGreenhouse)
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("second call should wait ~50ms, took %v", elapsed)
	}
}

func TestWait_ProvidersIndependent(t *testing.T) {
	r := NewProviderRateLimiter(time.Second)
	ctx := context.Background()

	r.Wait(ctx, model.SourceGreenhouse)
	start := time.Now()
	r.Wait(ctx, model.SourceLever)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("different provider should not wait, took %v", elapsed)
	}
}

func TestWait_ConcurrentCallersQueue(t *testing.T) {
	r := NewProviderRateLimiter(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Wait(ctx, model.SourceLever)
		}()
	}
	wg.Wait()

	// 3 callers at 20ms spacing: the last should finish no earlier than ~40ms in.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("concurrent callers should serialize, finished in %v", elapsed)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	r := NewProviderRateLimiter(10 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	r.Wait(ctx, model.SourceGreenhouse)
	cancel()
	if err := r.Wait(ctx, model.SourceGreenhouse); err == nil {
		t.Fatal("expected cancellation error")
	}
}

type countingFetcher struct{ calls int }

func (f *countingFetcher) FetchJobs(_ context.Context) ([]model.Job, error) {
	f.calls++
	return nil, nil
}

func TestLimitedFetcher_Delegates(t *testing.T) {
	inner := &countingFetcher{}
	f := NewLimitedFetcher(inner, NewProviderRateLimiter(time.Millisecond), model.SourceGreenhouse)

	if _, err := f.FetchJobs(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 delegated call, got %d", inner.calls)
	}
}
