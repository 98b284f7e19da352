package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobmatch/internal/model"
)

// Config is the root configuration for the jobmatch aggregator.
type Config struct {
	Interval time.Duration // pipeline run interval
	DBPath   string

	ResumeDoc        string // shareable Google Doc link to the resume
	CoverTemplateDoc string // shareable Google Doc link to the cover letter template

	Sources model.SourceList

	Retention           time.Duration // max job age, keyed on first_seen_at
	MaxJobs             int           // store cardinality cap
	MaxStoreBytes       int           // serialized-store size guard threshold
	DescriptionMax      int           // description bound at fetch time
	DescriptionShrunken int           // description bound applied by the size guard
	ShortlistSize       int
	RerankPoolSize      int
	KeywordTTL          time.Duration

	Filters      FilterConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Cache        CacheConfig
	AI           AIConfig
	API          APIConfig
}

// FilterConfig is the optional pre-store filter: a fetched job must contain
// one of KeywordsAny and one of LocationAny to be admitted. Empty lists pass.
type FilterConfig struct {
	KeywordsAny []string
	LocationAny []string
}

// NotificationConfig controls which notifier announces new jobs.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RateLimitConfig controls provider-level rate limiting.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests to the same provider
}

// CacheConfig controls the optional Redis fetch cache.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// AIConfig controls the optional LLM layer (keyword extraction, re-ranking,
// source discovery, cover letters).
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// APIConfig controls the optional HTTP API server.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// Defaults applied when the config omits a value.
const (
	DefaultRetention           = 30 * 24 * time.Hour
	DefaultMaxJobs             = 10000
	DefaultMaxStoreBytes       = 8 << 20
	DefaultDescriptionMax      = 2000
	DefaultDescriptionShrunken = 500
	DefaultShortlistSize       = 5
	DefaultRerankPoolSize      = 100
	DefaultKeywordTTL          = 24 * time.Hour
)

// DefaultSources is the fixed fallback board list, used whenever no source
// list is configured, stored, or discovered.
func DefaultSources() model.SourceList {
	return model.SourceList{
		Greenhouse: []model.BoardSource{
			{Token: "stripe", Label: "Stripe"},
			{Token: "airbnb", Label: "Airbnb"},
			{Token: "cloudflare", Label: "Cloudflare"},
			{Token: "databricks", Label: "Databricks"},
		},
		Lever: []model.BoardSource{
			{Token: "netflix", Label: "Netflix"},
			{Token: "plaid", Label: "Plaid"},
			{Token: "ramp", Label: "Ramp"},
		},
	}
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	Interval         string             `yaml:"interval"`
	DBPath           string             `yaml:"db_path"`
	ResumeDoc        string             `yaml:"resume_doc"`
	CoverTemplateDoc string             `yaml:"cover_template_doc"`
	Sources          rawSources         `yaml:"sources"`
	Retention        string             `yaml:"retention"`
	MaxJobs          int                `yaml:"max_jobs"`
	MaxStoreBytes    int                `yaml:"max_store_bytes"`
	DescriptionMax   int                `yaml:"description_max"`
	DescriptionShrunken int             `yaml:"description_shrunken"`
	ShortlistSize    int                `yaml:"shortlist_size"`
	RerankPoolSize   int                `yaml:"rerank_pool_size"`
	KeywordTTL       string             `yaml:"keyword_ttl"`
	Filters          rawFilterConfig    `yaml:"filters"`
	Notification     NotificationConfig `yaml:"notification"`
	RateLimit        rawRateLimitConfig `yaml:"rate_limit"`
	Cache            rawCacheConfig     `yaml:"cache"`
	AI               rawAIConfig        `yaml:"ai"`
	API              APIConfig          `yaml:"api"`
}

type rawSources struct {
	Greenhouse []rawBoard `yaml:"greenhouse"`
	Lever      []rawBoard `yaml:"lever"`
}

type rawBoard struct {
	Token string `yaml:"token"`
	Label string `yaml:"label"`
}

type rawFilterConfig struct {
	KeywordsAny []string `yaml:"keywords_any"`
	LocationAny []string `yaml:"location_any"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawCacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config with defaults filled in.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := 1 * time.Hour
	if raw.Interval != "" {
		interval, err = time.ParseDuration(raw.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse interval %q: %w", raw.Interval, err)
		}
	}

	retention := DefaultRetention
	if raw.Retention != "" {
		retention, err = time.ParseDuration(raw.Retention)
		if err != nil {
			return nil, fmt.Errorf("parse retention %q: %w", raw.Retention, err)
		}
	}

	keywordTTL := DefaultKeywordTTL
	if raw.KeywordTTL != "" {
		keywordTTL, err = time.ParseDuration(raw.KeywordTTL)
		if err != nil {
			return nil, fmt.Errorf("parse keyword_ttl %q: %w", raw.KeywordTTL, err)
		}
	}

	minDelay := 1 * time.Second
	if raw.RateLimit.MinDelay != "" {
		minDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}

	cacheTTL := 30 * time.Minute
	if raw.Cache.TTL != "" {
		cacheTTL, err = time.ParseDuration(raw.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.ttl %q: %w", raw.Cache.TTL, err)
		}
	}

	aiTimeout := 30 * time.Second
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	dbPath := raw.DBPath
	if dbPath == "" {
		dbPath = "jobs.db"
	}

	listen := raw.API.Listen
	if listen == "" {
		listen = ":8080"
	}

	cfg := &Config{
		Interval:            interval,
		DBPath:              dbPath,
		ResumeDoc:           strings.TrimSpace(raw.ResumeDoc),
		CoverTemplateDoc:    strings.TrimSpace(raw.CoverTemplateDoc),
		Sources:             convertSources(raw.Sources),
		Retention:           retention,
		MaxJobs:             intOrDefault(raw.MaxJobs, DefaultMaxJobs),
		MaxStoreBytes:       intOrDefault(raw.MaxStoreBytes, DefaultMaxStoreBytes),
		DescriptionMax:      intOrDefault(raw.DescriptionMax, DefaultDescriptionMax),
		DescriptionShrunken: intOrDefault(raw.DescriptionShrunken, DefaultDescriptionShrunken),
		ShortlistSize:       intOrDefault(raw.ShortlistSize, DefaultShortlistSize),
		RerankPoolSize:      intOrDefault(raw.RerankPoolSize, DefaultRerankPoolSize),
		KeywordTTL:          keywordTTL,
		Filters: FilterConfig{
			KeywordsAny: raw.Filters.KeywordsAny,
			LocationAny: raw.Filters.LocationAny,
		},
		Notification: raw.Notification,
		RateLimit:    RateLimitConfig{MinDelay: minDelay},
		Cache: CacheConfig{
			RedisURL: raw.Cache.RedisURL,
			TTL:      cacheTTL,
		},
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		API: APIConfig{
			Enabled: raw.API.Enabled,
			Listen:  listen,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// convertSources maps the raw YAML boards into a SourceList, deduplicated by token.
func convertSources(raw rawSources) model.SourceList {
	return model.SourceList{
		Greenhouse: dedupBoards(raw.Greenhouse),
		Lever:      dedupBoards(raw.Lever),
	}
}

func dedupBoards(raw []rawBoard) []model.BoardSource {
	seen := make(map[string]bool, len(raw))
	var out []model.BoardSource
	for _, b := range raw {
		token := strings.TrimSpace(b.Token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, model.BoardSource{Token: token, Label: b.Label})
	}
	return out
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %v", cfg.Retention)
	}
	if cfg.DescriptionShrunken > cfg.DescriptionMax {
		return fmt.Errorf("description_shrunken (%d) must not exceed description_max (%d)",
			cfg.DescriptionShrunken, cfg.DescriptionMax)
	}
	if cfg.ShortlistSize > cfg.RerankPoolSize {
		return fmt.Errorf("shortlist_size (%d) must not exceed rerank_pool_size (%d)",
			cfg.ShortlistSize, cfg.RerankPoolSize)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
