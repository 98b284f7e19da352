package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const fullConfig = `
interval: 30m
db_path: /tmp/test-jobs.db
resume_doc: https://docs.google.com/document/d/abc/edit
retention: 168h
max_jobs: 500
shortlist_size: 3
rerank_pool_size: 50
keyword_ttl: 12h
sources:
  greenhouse:
    - token: acme
      label: Acme Corp
    - token: acme
    - token: globex
  lever:
    - token: beta
filters:
  keywords_any: [engineer]
  location_any: [remote]
rate_limit:
  min_delay: 2s
cache:
  redis_url: redis://localhost:6379
  ttl: 15m
ai:
  enabled: true
  model: gpt-4o-mini
  api_key: sk-test
  timeout: 45s
api:
  enabled: true
  listen: ":9090"
`

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Interval != 30*time.Minute {
		t.Errorf("interval = %v", cfg.Interval)
	}
	if cfg.Retention != 168*time.Hour {
		t.Errorf("retention = %v", cfg.Retention)
	}
	if cfg.MaxJobs != 500 {
		t.Errorf("max_jobs = %d", cfg.MaxJobs)
	}
	if cfg.ShortlistSize != 3 || cfg.RerankPoolSize != 50 {
		t.Errorf("shortlist/pool = %d/%d", cfg.ShortlistSize, cfg.RerankPoolSize)
	}
	if cfg.KeywordTTL != 12*time.Hour {
		t.Errorf("keyword_ttl = %v", cfg.KeywordTTL)
	}
	// Duplicate greenhouse token collapsed.
	if len(cfg.Sources.Greenhouse) != 2 {
		t.Errorf("expected 2 deduplicated greenhouse boards, got %d", len(cfg.Sources.Greenhouse))
	}
	if cfg.Sources.Greenhouse[0].Label != "Acme Corp" {
		t.Errorf("label = %q", cfg.Sources.Greenhouse[0].Label)
	}
	if cfg.RateLimit.MinDelay != 2*time.Second {
		t.Errorf("min_delay = %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Cache.RedisURL == "" || cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.AI.Enabled || cfg.AI.BaseURL != defaultOpenAIBaseURL || cfg.AI.Timeout != 45*time.Second {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if !cfg.API.Enabled || cfg.API.Listen != ":9090" {
		t.Errorf("api = %+v", cfg.API)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "interval: 1h\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Retention != DefaultRetention {
		t.Errorf("retention default = %v", cfg.Retention)
	}
	if cfg.MaxJobs != DefaultMaxJobs {
		t.Errorf("max_jobs default = %d", cfg.MaxJobs)
	}
	if cfg.MaxStoreBytes != DefaultMaxStoreBytes {
		t.Errorf("max_store_bytes default = %d", cfg.MaxStoreBytes)
	}
	if cfg.DescriptionMax != DefaultDescriptionMax || cfg.DescriptionShrunken != DefaultDescriptionShrunken {
		t.Errorf("description bounds = %d/%d", cfg.DescriptionMax, cfg.DescriptionShrunken)
	}
	if cfg.ShortlistSize != DefaultShortlistSize || cfg.RerankPoolSize != DefaultRerankPoolSize {
		t.Errorf("shortlist defaults = %d/%d", cfg.ShortlistSize, cfg.RerankPoolSize)
	}
	if cfg.KeywordTTL != DefaultKeywordTTL {
		t.Errorf("keyword_ttl default = %v", cfg.KeywordTTL)
	}
	if cfg.DBPath != "jobs.db" {
		t.Errorf("db_path default = %q", cfg.DBPath)
	}
	if !cfg.Sources.Empty() {
		t.Errorf("expected empty sources, got %+v", cfg.Sources)
	}
	if cfg.AI.Enabled {
		t.Error("ai should default to disabled")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	cfg, err := Load(writeConfig(t, `
interval: 1h
ai:
  enabled: true
  model: gpt-4o-mini
  api_key: ${TEST_OPENAI_KEY}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q", cfg.AI.APIKey)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "ai enabled without key",
			content: "interval: 1h\nai:\n  enabled: true\n  model: gpt-4o-mini\n",
			wantErr: "ai.api_key",
		},
		{
			name:    "ai enabled without model",
			content: "interval: 1h\nai:\n  enabled: true\n  api_key: sk-x\n",
			wantErr: "ai.model",
		},
		{
			name:    "slack without webhook",
			content: "interval: 1h\nnotification:\n  type: slack\n",
			wantErr: "webhook_url",
		},
		{
			name:    "shortlist larger than pool",
			content: "interval: 1h\nshortlist_size: 200\nrerank_pool_size: 100\n",
			wantErr: "shortlist_size",
		},
		{
			name:    "bad interval",
			content: "interval: soon\n",
			wantErr: "interval",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultSources(t *testing.T) {
	s := DefaultSources()
	if s.Empty() {
		t.Fatal("fallback source list must not be empty")
	}
	if len(s.Greenhouse) == 0 || len(s.Lever) == 0 {
		t.Error("fallback list should cover both providers")
	}
}
