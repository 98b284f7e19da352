package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmatch/internal/adapter"
	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/cache"
	"github.com/amishk599/jobmatch/internal/config"
	"github.com/amishk599/jobmatch/internal/discovery"
	"github.com/amishk599/jobmatch/internal/docs"
	"github.com/amishk599/jobmatch/internal/filter"
	"github.com/amishk599/jobmatch/internal/keywords"
	"github.com/amishk599/jobmatch/internal/model"
	"github.com/amishk599/jobmatch/internal/notifier"
	"github.com/amishk599/jobmatch/internal/pipeline"
	"github.com/amishk599/jobmatch/internal/ratelimit"
	"github.com/amishk599/jobmatch/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobmatch",
	Short: "Resume-aware job aggregator",
	Long:  "JobMatch aggregates postings from Greenhouse and Lever boards, scores them against your resume, and keeps a rolling shortlist of the best matches.",
	// Default to `start` so that `jobmatch` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBMATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBMATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBMATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupProvider returns the LLM provider, or nil when AI is disabled.
func setupProvider(cfg *config.Config) ai.LLMProvider {
	if !cfg.AI.Enabled {
		return nil
	}
	client := &http.Client{Timeout: cfg.AI.Timeout}
	return ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, client)
}

// setupExtractor picks the keyword extractor: LLM-backed with a pattern
// fallback when AI is enabled, pure pattern matching otherwise.
func setupExtractor(provider ai.LLMProvider, logger *slog.Logger) model.KeywordExtractor {
	if provider != nil {
		return keywords.NewLLMExtractor(provider, logger)
	}
	return keywords.NewPatternExtractor()
}

// setupFetcherFactory builds the per-board fetcher chain:
// adapter -> retry -> rate limit -> optional redis cache.
func setupFetcherFactory(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) pipeline.FetcherFactory {
	limiter := ratelimit.NewProviderRateLimiter(cfg.RateLimit.MinDelay)

	var fetchCache *cache.Cache
	if cfg.Cache.RedisURL != "" {
		c, err := cache.New(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			logger.Warn("redis cache unavailable, fetching without cache", "error", err)
		} else {
			fetchCache = c
			logger.Info("redis fetch cache enabled", "ttl", cfg.Cache.TTL.String())
		}
	}

	return func(provider string, board model.BoardSource) model.JobFetcher {
		var f model.JobFetcher
		switch provider {
		case model.SourceLever:
			f = adapter.NewLeverAdapter(board.Token, board.Label, cfg.DescriptionMax, httpClient)
		default:
			f = adapter.NewGreenhouseAdapter(board.Token, board.Label, cfg.DescriptionMax, httpClient)
		}

		f = retry.NewFetcher(f, board.Token, 2, 5*time.Second, logger)
		f = ratelimit.NewLimitedFetcher(f, limiter, provider)
		if fetchCache != nil {
			f = cache.NewCachedFetcher(f, fetchCache, provider, board.Token, logger)
		}
		return f
	}
}

func setupPipeline(cfg *config.Config, st model.Store, httpClient *http.Client, logger *slog.Logger) *pipeline.Pipeline {
	provider := setupProvider(cfg)

	var ranker *ai.Ranker
	if provider != nil {
		ranker = ai.NewRanker(provider)
	}

	var jobFilter model.JobFilter
	if len(cfg.Filters.KeywordsAny) > 0 || len(cfg.Filters.LocationAny) > 0 {
		jobFilter = filter.New(cfg.Filters.KeywordsAny, cfg.Filters.LocationAny)
	}

	return pipeline.New(cfg, st, setupFetcherFactory(cfg, httpClient, logger), logger, pipeline.Options{
		Filter:    jobFilter,
		Extractor: setupExtractor(provider, logger),
		Resume:    docs.NewGoogleDocProvider(httpClient),
		Ranker:    ranker,
		Notifier:  setupNotifier(cfg, httpClient, logger),
	})
}

func setupDiscoverer(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *discovery.Discoverer {
	provider := setupProvider(cfg)

	verifiers := map[string]model.BoardVerifier{
		model.SourceGreenhouse: adapter.NewGreenhouseAdapter("", "", cfg.DescriptionMax, httpClient),
		model.SourceLever:      adapter.NewLeverAdapter("", "", cfg.DescriptionMax, httpClient),
	}

	fallback := cfg.Sources
	if fallback.Empty() {
		fallback = config.DefaultSources()
	}

	return discovery.NewDiscoverer(provider, verifiers, fallback, logger)
}
