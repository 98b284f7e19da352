package ai

import "context"

// Request is one completion call: a system/user prompt pair plus an optional
// respond-as-JSON directive.
type Request struct {
	System      string
	User        string
	JSONMode    bool // ask the model to emit a single JSON object
	Temperature float64
	MaxTokens   int
}

// LLMProvider sends a prompt pair to a language model and returns the raw
// text completion.
type LLMProvider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
