// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations do not retry and do not batch. Retry policy lives in a
// decorating EmbeddingService so the core contract stays unchanged.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - The built-in hashing embedder
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Network and auth failures return *domain.EmbeddingServiceError.
	// When the provider reports exhausted quota, Embed may return an
	// empty vector and a nil error, marking the text unembeddable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	// All stored vectors and all queries within a deployment share it.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
