package store

import (
	"sync"
	"time"

	"github.com/amishk599/jobmatch/internal/model"
)

// MemoryStore is an in-memory model.Store used by tests and dry runs.
// Nothing survives process exit.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      []model.Job
	shortlist []string
	sources   model.SourceList
	keywords  model.KeywordSet
	updated   *time.Time
	lastError string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadJobs() ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Job, len(s.jobs))
	copy(out, s.jobs)
	return out, nil
}

func (s *MemoryStore) ReplaceAll(jobs []model.Job, shortlist []string, ranAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make([]model.Job, len(jobs))
	copy(s.jobs, jobs)
	s.shortlist = make([]string, len(shortlist))
	copy(s.shortlist, shortlist)
	t := ranAt
	s.updated = &t
	s.lastError = ""
	return nil
}

func (s *MemoryStore) RecordError(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
	return nil
}

func (s *MemoryStore) LoadShortlist() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.shortlist))
	copy(out, s.shortlist)
	return out, nil
}

func (s *MemoryStore) LoadSources() (model.SourceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources, nil
}

func (s *MemoryStore) SaveSources(sources model.SourceList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = sources
	return nil
}

func (s *MemoryStore) LoadKeywords() (model.KeywordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keywords, nil
}

func (s *MemoryStore) SaveKeywords(set model.KeywordSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords = set
	return nil
}

func (s *MemoryStore) Status() (model.RunStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.RunStatus{
		LastUpdated: s.updated,
		LastError:   s.lastError,
		JobCount:    len(s.jobs),
	}, nil
}
