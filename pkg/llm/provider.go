package llm

import "context"

// Message is one chat turn passed to a Provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions controls a single Complete call. Model defaults
// to the provider's own default when empty; MaxTokens of 0 means the
// provider's default cap.
type CompletionOptions struct {
	Model     string
	MaxTokens int
}

// Provider is the external LLM collaborator interface consumed only
// from §4.8 EXTRACT. Complete must respect ctx's deadline and must
// not leave partial state behind on cancellation: callers buffer the
// returned text in memory before it is ever written to disk.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}
