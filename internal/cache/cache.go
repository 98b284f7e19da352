// Package cache provides an optional Redis-backed cache for board fetch results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobmatch/internal/model"
)

// Cache stores normalized board fetch results in Redis with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at the given URL and returns a Cache.
// URL format: redis://localhost:6379
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get retrieves cached jobs for the given provider/token board.
// Returns the jobs and true if a valid entry exists, or nil and false otherwise.
func (c *Cache) Get(ctx context.Context, provider, token string) ([]model.Job, bool) {
	data, err := c.client.Get(ctx, buildKey(provider, token)).Bytes()
	if err != nil {
		return nil, false
	}

	var jobs []model.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, false
	}
	return jobs, true
}

// Set stores jobs for the given board with the configured TTL.
func (c *Cache) Set(ctx context.Context, provider, token string, jobs []model.Job) error {
	data, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("cache: marshal error: %w", err)
	}
	return c.client.Set(ctx, buildKey(provider, token), data, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func buildKey(provider, token string) string {
	hash := sha256.Sum256([]byte(provider + ":" + token))
	return fmt.Sprintf("jobmatch:%s:%x", provider, hash[:8])
}

// CachedFetcher is a decorator that serves a board's jobs from the cache when
// a fresh entry exists and refreshes the cache after a successful fetch.
// Cache write failures are logged, never propagated.
type CachedFetcher struct {
	inner    model.JobFetcher
	cache    *Cache
	provider string
	token    string
	logger   *slog.Logger
}

// NewCachedFetcher wraps a JobFetcher with the Redis cache.
func NewCachedFetcher(inner model.JobFetcher, c *Cache, provider, token string, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:    inner,
		cache:    c,
		provider: provider,
		token:    token,
		logger:   logger,
	}
}

// FetchJobs returns the cached result when present, otherwise delegates to
// the wrapped fetcher and stores its result.
func (f *CachedFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if jobs, ok := f.cache.Get(ctx, f.provider, f.token); ok {
		return jobs, nil
	}

	jobs, err := f.inner.FetchJobs(ctx)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, f.provider, f.token, jobs); err != nil {
		f.logger.Warn("cache write failed", "provider", f.provider, "board", f.token, "error", err)
	}
	return jobs, nil
}
