// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// LLMService is the chat-completion collaborator.
// This is an optional service - when nil, chat is disabled and retrieval still works.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini) or any compatible endpoint
//   - Ollama (local models)
type LLMService interface {
	// Chat answers the last user message given a system instruction and history.
	Chat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
