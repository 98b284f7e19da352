// Package pipeline implements the aggregation run: fetch all configured
// boards, merge with the stored collection, prune, score, rank, and persist.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/config"
	"github.com/amishk599/jobmatch/internal/model"
	"github.com/amishk599/jobmatch/internal/scorer"
)

// ErrRunInProgress is returned when RunOnce is called while another run
// holds the pipeline.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// FetcherFactory builds the fetcher for one board. The command layer wires
// the adapter plus its retry, rate-limit, and cache decorators here.
type FetcherFactory func(provider string, board model.BoardSource) model.JobFetcher

// Pipeline owns one aggregation cycle. All collaborators except the store
// and fetcher factory are optional; a nil collaborator disables its step.
type Pipeline struct {
	cfg       *config.Config
	store     model.Store
	fetchers  FetcherFactory
	filter    model.JobFilter
	extractor model.KeywordExtractor
	resume    model.DocumentProvider
	ranker    *ai.Ranker
	notifier  model.Notifier
	logger    *slog.Logger

	now func() time.Time

	mu sync.Mutex // held for the duration of a run
}

// Options carries the optional collaborators for New.
type Options struct {
	Filter    model.JobFilter
	Extractor model.KeywordExtractor
	Resume    model.DocumentProvider
	Ranker    *ai.Ranker
	Notifier  model.Notifier
}

// New builds a Pipeline. cfg, store, fetchers, and logger are required.
func New(cfg *config.Config, store model.Store, fetchers FetcherFactory, logger *slog.Logger, opts Options) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		fetchers:  fetchers,
		filter:    opts.Filter,
		extractor: opts.Extractor,
		resume:    opts.Resume,
		ranker:    opts.Ranker,
		notifier:  opts.Notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Status returns the read-only view of the last run.
func (p *Pipeline) Status() (model.RunStatus, error) {
	return p.store.Status()
}

// RunOnce executes one aggregation cycle. Board-level failures degrade the
// run (the affected board contributes nothing); store-level failures abort
// it and are recorded as the run's lastError. Returns ErrRunInProgress if
// another run is active.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	if !p.mu.TryLock() {
		return ErrRunInProgress
	}
	defer p.mu.Unlock()

	start := p.now()

	if err := p.run(ctx, start); err != nil {
		if recErr := p.store.RecordError(err.Error()); recErr != nil {
			p.logger.Error("failed to record run error", "error", recErr)
		}
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, start time.Time) error {
	sources := p.resolveSources()

	existing, err := p.store.LoadJobs()
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}

	index := make(map[string]bool, len(existing))
	for _, j := range existing {
		index[j.ID] = true
	}

	fetched, failedBoards := p.fetchAll(ctx, sources)

	var newJobs []model.Job
	newIDs := make(map[string]bool)
	for _, j := range fetched {
		if j.Title == "" || j.URL == "" {
			continue
		}
		if p.filter != nil && !p.filter.Match(j) {
			continue
		}
		if index[j.ID] {
			continue // first sighting wins, existing record untouched
		}
		if j.FirstSeen.IsZero() {
			j.FirstSeen = start
		}
		index[j.ID] = true
		newIDs[j.ID] = true
		newJobs = append(newJobs, j)
	}

	jobs := append(existing, newJobs...)
	jobs = pruneExpired(jobs, start, p.cfg.Retention)

	resumeText := p.fetchResume(ctx)
	keywords := p.resolveKeywords(ctx, start, resumeText)

	for i := range jobs {
		jobs[i].Score, _ = scorer.Score(jobs[i].Text(), keywords)
	}

	sortJobs(jobs)

	if len(jobs) > p.cfg.MaxJobs {
		jobs = jobs[:p.cfg.MaxJobs]
	}

	jobs = p.applySizeGuard(jobs)

	shortlist := p.shortlist(ctx, jobs, resumeText)

	if err := p.store.ReplaceAll(jobs, shortlist, start); err != nil {
		return fmt.Errorf("persist jobs: %w", err)
	}

	p.notify(jobs, newIDs)

	p.logger.Info("run complete",
		"total", len(jobs),
		"new", len(newJobs),
		"failed_boards", failedBoards,
		"shortlist", len(shortlist),
		"duration", p.now().Sub(start),
	)
	return nil
}

// resolveSources prefers the stored (possibly resume-derived) list, then the
// configured list, then the built-in fallback.
func (p *Pipeline) resolveSources() model.SourceList {
	stored, err := p.store.LoadSources()
	if err != nil {
		p.logger.Warn("failed to load stored sources", "error", err)
	} else if !stored.Empty() {
		return stored
	}

	if !p.cfg.Sources.Empty() {
		return p.cfg.Sources
	}
	return config.DefaultSources()
}

// fetchAll fans out one goroutine per board and collects results. A failed
// board is logged and counted; its jobs are simply absent this run.
func (p *Pipeline) fetchAll(ctx context.Context, sources model.SourceList) ([]model.Job, int) {
	var (
		mu      sync.Mutex
		fetched []model.Job
		failed  int
		wg      sync.WaitGroup
	)

	for _, provider := range []string{model.SourceGreenhouse, model.SourceLever} {
		for _, board := range sources.Boards(provider) {
			wg.Add(1)
			go func(provider string, board model.BoardSource) {
				defer wg.Done()

				jobs, err := p.fetchers(provider, board).FetchJobs(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					p.logger.Warn("board fetch failed", "provider", provider, "token", board.Token, "error", err)
					failed++
					return
				}
				fetched = append(fetched, jobs...)
			}(provider, board)
		}
	}

	wg.Wait()
	return fetched, failed
}

// pruneExpired drops jobs first seen before the retention cutoff, measured
// against the run's start time.
func pruneExpired(jobs []model.Job, now time.Time, retention time.Duration) []model.Job {
	cutoff := now.Add(-retention)
	kept := jobs[:0]
	for _, j := range jobs {
		if j.FirstSeen.Before(cutoff) {
			continue
		}
		kept = append(kept, j)
	}
	return kept
}

// fetchResume returns the resume text, or "" when no provider or document is
// configured or the fetch fails.
func (p *Pipeline) fetchResume(ctx context.Context) string {
	if p.resume == nil || p.cfg.ResumeDoc == "" {
		return ""
	}
	text, err := p.resume.FetchText(ctx, p.cfg.ResumeDoc)
	if err != nil {
		p.logger.Warn("failed to fetch resume", "error", err)
		return ""
	}
	return text
}

// resolveKeywords returns the scoring keyword set: a fresh cached set if one
// exists, otherwise a newly extracted set. Extraction failure falls back to
// the stale cached set; with nothing at all, scoring proceeds with zero
// keywords and every job scores 0.
func (p *Pipeline) resolveKeywords(ctx context.Context, now time.Time, resumeText string) []string {
	cached, err := p.store.LoadKeywords()
	if err != nil {
		p.logger.Warn("failed to load cached keywords", "error", err)
	} else if cached.Fresh(now, p.cfg.KeywordTTL) {
		return cached.Keywords
	}

	if p.extractor != nil && resumeText != "" {
		extracted, err := p.extractor.Extract(ctx, resumeText)
		if err == nil && len(extracted) > 0 {
			set := model.KeywordSet{Keywords: extracted, ExtractedAt: now}
			if err := p.store.SaveKeywords(set); err != nil {
				p.logger.Warn("failed to cache keywords", "error", err)
			}
			return extracted
		}
		if err != nil {
			p.logger.Warn("keyword extraction failed", "error", err)
		}
	}

	// Stale cache beats nothing.
	return cached.Keywords
}

// sortJobs orders by score descending, then posted_at descending with nil
// treated as oldest, then ID for a stable total order.
func sortJobs(jobs []model.Job) {
	sort.SliceStable(jobs, func(i, k int) bool {
		if jobs[i].Score != jobs[k].Score {
			return jobs[i].Score > jobs[k].Score
		}
		pi, pk := jobs[i].PostedAt, jobs[k].PostedAt
		switch {
		case pi == nil && pk == nil:
			return jobs[i].ID < jobs[k].ID
		case pi == nil:
			return false
		case pk == nil:
			return true
		case !pi.Equal(*pk):
			return pi.After(*pk)
		}
		return jobs[i].ID < jobs[k].ID
	})
}

// applySizeGuard truncates every description when the serialized collection
// exceeds the configured byte threshold.
func (p *Pipeline) applySizeGuard(jobs []model.Job) []model.Job {
	data, err := json.Marshal(jobs)
	if err != nil || len(data) <= p.cfg.MaxStoreBytes {
		return jobs
	}

	p.logger.Warn("store size guard triggered, shrinking descriptions",
		"bytes", len(data),
		"threshold", p.cfg.MaxStoreBytes,
	)
	limit := p.cfg.DescriptionShrunken
	for i := range jobs {
		if len(jobs[i].Description) > limit {
			jobs[i].Description = shrink(jobs[i].Description, limit)
		}
	}
	return jobs
}

// shrink bounds s to limit bytes without splitting a multi-byte rune.
func shrink(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// shortlist selects the top-K job IDs from the leading pool of the sorted
// collection. With a ranker configured, the pool is re-ranked by the LLM;
// ranker failure falls back to score order.
func (p *Pipeline) shortlist(ctx context.Context, jobs []model.Job, resumeText string) []string {
	if len(jobs) == 0 {
		return nil
	}

	pool := jobs
	if len(pool) > p.cfg.RerankPoolSize {
		pool = pool[:p.cfg.RerankPoolSize]
	}

	k := p.cfg.ShortlistSize
	if k > len(pool) {
		k = len(pool)
	}

	if p.ranker != nil {
		indices, err := p.ranker.Rerank(ctx, pool, resumeText, k)
		if err == nil && len(indices) > 0 {
			ids := make([]string, 0, len(indices))
			for _, idx := range indices {
				ids = append(ids, pool[idx].ID)
			}
			return ids
		}
		if err != nil {
			p.logger.Warn("shortlist re-ranking failed, using score order", "error", err)
		}
	}

	ids := make([]string, 0, k)
	for _, j := range pool[:k] {
		ids = append(ids, j.ID)
	}
	return ids
}

// notify announces the jobs first seen this run, with their final scores.
// Notification failure never fails the run.
func (p *Pipeline) notify(jobs []model.Job, newIDs map[string]bool) {
	if p.notifier == nil || len(newIDs) == 0 {
		return
	}

	var announce []model.Job
	for _, j := range jobs {
		if newIDs[j.ID] {
			announce = append(announce, j)
		}
	}
	if len(announce) == 0 {
		return
	}
	if err := p.notifier.Notify(announce); err != nil {
		p.logger.Warn("notification failed", "error", err)
	}
}
