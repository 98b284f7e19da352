package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amishk599/jobmatch/internal/model"
)

const rankerSystemPrompt = "You are a recruiting assistant that ranks job postings " +
	"against a candidate's resume. Respond with JSON only."

// resumeExcerptLimit bounds how much resume text is sent on a ranking call.
const resumeExcerptLimit = 4000

// Ranker asks a language model to reorder a pre-filtered candidate pool.
type Ranker struct {
	provider LLMProvider
}

// NewRanker creates a Ranker backed by the given provider.
func NewRanker(provider LLMProvider) *Ranker {
	return &Ranker{provider: provider}
}

// Rerank returns up to k pool indices in the model's preferred order. The pool
// is presented with its keyword scores; the model picks the best matches for
// the resume. Any transport failure, unusable response shape, or out-of-range
// index set is returned as an error so the caller can keep its keyword-only
// ordering.
func (r *Ranker) Rerank(ctx context.Context, pool []model.Job, resumeText string, k int) ([]int, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("rerank: empty pool")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate resume (excerpt):\n%s\n\n", excerpt(resumeText, resumeExcerptLimit))
	fmt.Fprintf(&b, "Job postings (index, title, company, location, keyword score):\n")
	for i, j := range pool {
		fmt.Fprintf(&b, "%d. %s | %s | %s | score %d\n", i, j.Title, j.Company, j.Location, j.Score)
	}
	fmt.Fprintf(&b,
		"\nPick the %d postings that best match the resume, best first. "+
			`Respond as a JSON object: {"ranking": [indices]}.`, k)

	raw, err := r.provider.Complete(ctx, Request{
		System:      rankerSystemPrompt,
		User:        b.String(),
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	return decodeRanking(raw, len(pool), k)
}

// decodeRanking parses the model's ranking with a fixed precedence of accepted
// shapes: a {"ranking": [...]} object first, then a bare JSON array. Indices
// outside [0, poolSize) and duplicates are rejected.
func decodeRanking(raw string, poolSize, k int) ([]int, error) {
	raw = strings.TrimSpace(raw)

	var wrapped struct {
		Ranking []int `json:"ranking"`
	}
	indices := wrapped.Ranking
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Ranking) > 0 {
		indices = wrapped.Ranking
	} else {
		var bare []int
		if err := json.Unmarshal([]byte(raw), &bare); err != nil || len(bare) == 0 {
			return nil, fmt.Errorf("rerank: unusable response shape: %q", excerpt(raw, 120))
		}
		indices = bare
	}

	seen := make(map[int]bool, len(indices))
	var out []int
	for _, idx := range indices {
		if idx < 0 || idx >= poolSize {
			return nil, fmt.Errorf("rerank: index %d out of range for pool of %d", idx, poolSize)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
