// Package discovery proposes job board sources from resume text and keeps
// only the ones that verify as live boards.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/model"
)

const resumeExcerptLimit = 4000

// Discoverer asks an LLM for candidate board tokens matching a resume, then
// verifies each candidate against the live board APIs in parallel. Any
// failure degrades to the fallback list rather than erroring out.
type Discoverer struct {
	provider  ai.LLMProvider
	verifiers map[string]model.BoardVerifier // key: provider name
	fallback  model.SourceList
	logger    *slog.Logger
}

// NewDiscoverer builds a Discoverer. verifiers maps provider names
// ("greenhouse", "lever") to their board verifiers. fallback is returned
// whenever discovery cannot produce at least one verified board.
func NewDiscoverer(provider ai.LLMProvider, verifiers map[string]model.BoardVerifier, fallback model.SourceList, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		provider:  provider,
		verifiers: verifiers,
		fallback:  fallback,
		logger:    logger,
	}
}

// candidate is one proposed board before verification.
type candidate struct {
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

// Discover returns a verified source list derived from the resume, or the
// fallback list if the LLM call, decoding, or all verifications fail.
func (d *Discoverer) Discover(ctx context.Context, resumeText string) model.SourceList {
	if d.provider == nil || strings.TrimSpace(resumeText) == "" {
		return d.fallback
	}

	candidates, err := d.propose(ctx, resumeText)
	if err != nil {
		d.logger.Warn("source discovery failed, using fallback", "error", err)
		return d.fallback
	}

	verified := d.verifyAll(ctx, candidates)
	if verified.Empty() {
		d.logger.Warn("no proposed boards verified, using fallback", "candidates", len(candidates))
		return d.fallback
	}

	verified.ResumeDerived = true
	d.logger.Info("source discovery complete",
		"candidates", len(candidates),
		"greenhouse", len(verified.Greenhouse),
		"lever", len(verified.Lever),
	)
	return verified
}

func (d *Discoverer) propose(ctx context.Context, resumeText string) ([]candidate, error) {
	req := ai.Request{
		System: "You are a job search assistant. You know which companies host their " +
			"careers pages on Greenhouse and Lever, and the board token each company " +
			"uses (the slug in boards.greenhouse.io/<token> or jobs.lever.co/<token>). " +
			"Respond with JSON only.",
		User: fmt.Sprintf(
			"Based on this resume, suggest 20 to 40 companies likely to hire this "+
				"candidate whose job boards are hosted on Greenhouse or Lever. Return a "+
				"JSON object of the form {\"sources\": [{\"provider\": \"greenhouse\", "+
				"\"token\": \"...\"}, ...]}. provider must be \"greenhouse\" or \"lever\" "+
				"and token must be the exact board slug.\n\nResume:\n%s",
			excerpt(resumeText, resumeExcerptLimit),
		),
		JSONMode:    true,
		Temperature: 0.3,
		MaxTokens:   2000,
	}

	raw, err := d.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("propose sources: %w", err)
	}

	return decodeCandidates(raw)
}

// decodeCandidates accepts either {"sources": [...]} or a bare array.
func decodeCandidates(raw string) ([]candidate, error) {
	var wrapped struct {
		Sources []candidate `json:"sources"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Sources) > 0 {
		return normalizeCandidates(wrapped.Sources), nil
	}

	var bare []candidate
	if err := json.Unmarshal([]byte(raw), &bare); err == nil && len(bare) > 0 {
		return normalizeCandidates(bare), nil
	}

	return nil, fmt.Errorf("response is not a recognized sources shape: %q", excerpt(raw, 200))
}

func normalizeCandidates(in []candidate) []candidate {
	seen := make(map[string]bool)
	out := make([]candidate, 0, len(in))
	for _, c := range in {
		c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
		c.Token = strings.ToLower(strings.TrimSpace(c.Token))
		if c.Token == "" {
			continue
		}
		if c.Provider != model.SourceGreenhouse && c.Provider != model.SourceLever {
			continue
		}
		key := c.Provider + "|" + c.Token
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// verifyAll checks every candidate concurrently and keeps only boards that
// resolve to at least one live posting. Verification errors drop the
// candidate, never the run.
func (d *Discoverer) verifyAll(ctx context.Context, candidates []candidate) model.SourceList {
	var (
		mu   sync.Mutex
		list model.SourceList
		wg   sync.WaitGroup
	)

	for _, c := range candidates {
		verifier, ok := d.verifiers[c.Provider]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(c candidate, v model.BoardVerifier) {
			defer wg.Done()

			alive, err := v.Verify(ctx, c.Token)
			if err != nil {
				d.logger.Debug("board verification failed", "provider", c.Provider, "token", c.Token, "error", err)
				return
			}
			if !alive {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			switch c.Provider {
			case model.SourceGreenhouse:
				list.Greenhouse = append(list.Greenhouse, model.BoardSource{Token: c.Token})
			case model.SourceLever:
				list.Lever = append(list.Lever, model.BoardSource{Token: c.Token})
			}
		}(c, verifier)
	}

	wg.Wait()
	return list
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
