package model

import (
	"context"
	"time"
)

// Provider names for the supported board APIs.
const (
	SourceGreenhouse = "greenhouse"
	SourceLever      = "lever"
)

// Job is the unified representation of a posting from any board.
type Job struct {
	ID          string     `json:"id"`                  // fingerprint of (source, board token, canonical URL)
	Source      string     `json:"source"`              // "greenhouse" or "lever"
	Company     string     `json:"company"`             // board token / company label
	Title       string     `json:"title"`               // may be empty
	Location    string     `json:"location"`            // may be empty
	URL         string     `json:"url"`                 // canonical posting link
	Description string     `json:"description"`         // plain text, length-bounded
	PostedAt    *time.Time `json:"posted_at,omitempty"` // source-reported, nullable
	FirstSeen   time.Time  `json:"first_seen_at"`       // our clock, set once on first encounter
	Score       int        `json:"score"`               // 0-100, recomputed every run
}

// Text returns the concatenated searchable text of the job.
func (j Job) Text() string {
	return j.Title + " " + j.Company + " " + j.Location + " " + j.Description
}

// BoardSource identifies one external board within a provider.
type BoardSource struct {
	Token string `json:"token"`
	Label string `json:"label,omitempty"`
}

// SourceList holds board sources keyed by provider, deduplicated by token.
type SourceList struct {
	Greenhouse []BoardSource `json:"greenhouse"`
	Lever      []BoardSource `json:"lever"`
	// ResumeDerived reports whether the list came from resume-driven
	// discovery rather than configuration or the built-in fallback.
	ResumeDerived bool `json:"resume_derived,omitempty"`
}

// Boards returns the sources for the given provider.
func (s SourceList) Boards(provider string) []BoardSource {
	switch provider {
	case SourceGreenhouse:
		return s.Greenhouse
	case SourceLever:
		return s.Lever
	}
	return nil
}

// Empty reports whether the list has no boards for any provider.
func (s SourceList) Empty() bool {
	return len(s.Greenhouse) == 0 && len(s.Lever) == 0
}

// KeywordSet is a cached set of normalized resume keywords.
type KeywordSet struct {
	Keywords    []string  `json:"keywords"` // lowercase, trimmed, 1-3 words each
	ExtractedAt time.Time `json:"extracted_at"`
}

// Fresh reports whether the set is younger than ttl relative to now.
func (k KeywordSet) Fresh(now time.Time, ttl time.Duration) bool {
	return len(k.Keywords) > 0 && now.Sub(k.ExtractedAt) < ttl
}

// RunStatus is the read-only view of the last pipeline run.
type RunStatus struct {
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	JobCount    int        `json:"job_count"`
}

// JobFetcher fetches job listings from a single board.
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Job, error)
}

// BoardVerifier checks that a board token resolves to a live, non-empty board.
// Used only by source discovery; the main fetch path trusts its source list.
type BoardVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// JobFilter decides whether a fetched job is admitted into the store.
type JobFilter interface {
	Match(job Job) bool
}

// KeywordExtractor turns resume text into a normalized keyword set.
type KeywordExtractor interface {
	Extract(ctx context.Context, resumeText string) ([]string, error)
}

// DocumentProvider resolves an opaque document reference to plain text.
type DocumentProvider interface {
	FetchText(ctx context.Context, ref string) (string, error)
}

// Notifier announces newly discovered jobs after a run.
type Notifier interface {
	Notify(jobs []Job) error
}

// Store is the persisted job store. Implementations must survive process
// restarts (except the in-memory store used by tests and dry runs) and must
// apply ReplaceAll atomically.
type Store interface {
	LoadJobs() ([]Job, error)

	// ReplaceAll swaps the full job collection and shortlist in one
	// transaction, stamps lastUpdated and clears lastError.
	ReplaceAll(jobs []Job, shortlist []string, ranAt time.Time) error

	// RecordError persists a run-level failure without touching jobs.
	RecordError(msg string) error

	LoadShortlist() ([]string, error)

	LoadSources() (SourceList, error)
	SaveSources(sources SourceList) error

	LoadKeywords() (KeywordSet, error)
	SaveKeywords(set KeywordSet) error

	Status() (RunStatus, error)
}
