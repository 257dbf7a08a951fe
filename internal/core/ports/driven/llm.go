package driven

import "context"

// LLMService generates answers from packed context.
// This is an optional service - when nil, the ask flow only returns
// retrieved evidence.
type LLMService interface {
	// Complete sends a system prompt and user message and returns the
	// generated text.
	Complete(ctx context.Context, system, user string) (string, error)

	// ModelName returns the model that served the last completion,
	// accounting for fallbacks.
	ModelName() string

	// Close releases resources.
	Close() error
}
