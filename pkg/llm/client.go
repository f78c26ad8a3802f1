// Package llm provides the model client used for Terraform analysis and
// structured extraction, plus the prompt builders for both calls.
//
// The client is a narrow interface over chat completion so tests can
// script responses; the only real implementation speaks the OpenAI API
// (and any compatible server via a base URL override).
package llm

import "context"

// DefaultMaxTokens caps completion length for analysis and extraction
// calls.
const DefaultMaxTokens = 16000

// Request is a single completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32 // zero value leaves the provider default
	MaxTokens   int     // zero means DefaultMaxTokens
}

// Client is implemented by LLM backends.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
