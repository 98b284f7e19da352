package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/jobmatch/internal/ai"
)

const extractorSystemPrompt = "You are a precise keyword extractor for resumes. Respond with JSON only."

// resumeExcerptLimit bounds how much resume text is sent on an extraction call.
const resumeExcerptLimit = 6000

// LLMExtractor asks a language model for resume keywords and falls back to
// the pattern strategy on any failure. Extraction failures are never fatal.
type LLMExtractor struct {
	provider ai.LLMProvider
	fallback *PatternExtractor
	logger   *slog.Logger
}

// NewLLMExtractor creates an extractor backed by provider with the pattern
// strategy as its fallback.
func NewLLMExtractor(provider ai.LLMProvider, logger *slog.Logger) *LLMExtractor {
	return &LLMExtractor{
		provider: provider,
		fallback: NewPatternExtractor(),
		logger:   logger,
	}
}

// Extract returns 30-50 normalized keywords from the resume text. On a
// transport failure, malformed response, or empty result it logs a warning
// and returns the pattern strategy's output instead.
func (e *LLMExtractor) Extract(ctx context.Context, resumeText string) ([]string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, nil
	}

	kws, err := e.extractLLM(ctx, resumeText)
	if err != nil {
		e.logger.Warn("llm keyword extraction failed, using pattern strategy", "error", err)
		return e.fallback.Extract(ctx, resumeText)
	}
	return kws, nil
}

func (e *LLMExtractor) extractLLM(ctx context.Context, resumeText string) ([]string, error) {
	text := resumeText
	if len(text) > resumeExcerptLimit {
		text = text[:resumeExcerptLimit]
	}

	prompt := fmt.Sprintf(`Extract 30-50 keywords from this resume that are useful for
matching job postings: technologies, tools, role titles, and domains.
Each keyword must be lowercase and 1-3 words.
Respond as a JSON object: {"keywords": ["keyword", ...]}.

Resume:
%s`, text)

	raw, err := e.provider.Complete(ctx, ai.Request{
		System:      extractorSystemPrompt,
		User:        prompt,
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, err
	}

	kws, err := decodeKeywords(raw)
	if err != nil {
		return nil, err
	}
	if len(kws) == 0 {
		return nil, fmt.Errorf("llm returned no keywords")
	}
	return kws, nil
}

// decodeKeywords parses the model output, accepting a {"keywords": [...]}
// object first and a bare JSON array second. Entries are lowercased, trimmed,
// limited to 1-3 words, and deduplicated.
func decodeKeywords(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)

	var wrapped struct {
		Keywords []string `json:"keywords"`
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Keywords) > 0 {
		list = wrapped.Keywords
	} else {
		var bare []string
		if err := json.Unmarshal([]byte(raw), &bare); err != nil {
			return nil, fmt.Errorf("unusable keyword response shape")
		}
		list = bare
	}

	seen := make(map[string]bool, len(list))
	var out []string
	for _, kw := range list {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || len(strings.Fields(kw)) > 3 || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out, nil
}
