package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or chat.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLocal is the built-in hashing embedder. It needs no network.
	AIProviderLocal AIProvider = "local"

	// AIProviderNone disables the capability.
	AIProviderNone AIProvider = "none"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLocal, AIProviderNone:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderLocal:
		return "Hashing embedder (offline)"
	case AIProviderNone:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// StorageBackend selects where documents and chunks live.
type StorageBackend string

// Available storage backends.
const (
	StorageMemory   StorageBackend = "memory"
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageMemory, StorageSQLite, StoragePostgres:
		return true
	default:
		return false
	}
}

// PipelineSettings controls chunking and embedding pacing.
type PipelineSettings struct {
	// ChunkSize is the window length in bytes.
	ChunkSize int

	// ChunkOverlap is how far consecutive windows overlap. Must be below ChunkSize.
	ChunkOverlap int

	// BatchSize bounds concurrent embedding calls.
	BatchSize int

	// BatchDelay is the pause between batches.
	BatchDelay time.Duration

	// CallTimeout bounds a single embedding call.
	CallTimeout time.Duration
}

// RetrievalSettings controls query-time search.
type RetrievalSettings struct {
	// Limit is the default number of results.
	Limit int

	// Overfetch multiplies Limit when querying the vector store
	// to leave room for deduplication.
	Overfetch int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is resolved from the environment variable named in APIKeyEnv.
	APIKey    string
	APIKeyEnv string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RequestsPerSecond and Burst shape the client-side token bucket.
	RequestsPerSecond float64
	Burst             int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderNone {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds chat model configuration.
type LLMSettings struct {
	Provider  AIProvider
	Model     string
	BaseURL   string
	APIKey    string
	APIKeyEnv string

	// HistoryLimit is how many prior messages are sent with each question.
	HistoryLimit int
}

// IsConfigured returns true if the chat model is set up.
func (l LLMSettings) IsConfigured() bool {
	if l.Provider != AIProviderOpenAI && l.Provider != AIProviderOllama {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings selects and locates the store.
type StorageSettings struct {
	Backend     StorageBackend
	DataDir     string
	PostgresDSN string
}

// WebSearchSettings configures web acquisition.
type WebSearchSettings struct {
	// Provider is "serper" or "none".
	Provider  string
	APIKey    string
	APIKeyEnv string

	// Results is how many hits are acquired per query.
	Results int
}

// IsConfigured returns true if web acquisition can run.
func (w WebSearchSettings) IsConfigured() bool {
	return w.Provider == "serper" && w.APIKey != ""
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr           string
	MaxUploadBytes int64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Pipeline  PipelineSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	WebSearch WebSearchSettings
	Server    ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The local embedder is used until a provider is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Pipeline: PipelineSettings{
			ChunkSize:    1000,
			ChunkOverlap: 100,
			BatchSize:    5,
			BatchDelay:   100 * time.Millisecond,
			CallTimeout:  30 * time.Second,
		},
		Retrieval: RetrievalSettings{
			Limit:     5,
			Overfetch: 2,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderLocal,
			APIKeyEnv:         "OPENAI_API_KEY",
			MaxRetries:        3,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		LLM: LLMSettings{
			Provider:     AIProviderNone,
			APIKeyEnv:    "OPENAI_API_KEY",
			HistoryLimit: 10,
		},
		Storage: StorageSettings{
			Backend: StorageMemory,
		},
		WebSearch: WebSearchSettings{
			Provider:  "none",
			APIKeyEnv: "SERPER_API_KEY",
			Results:   3,
		},
		Server: ServerSettings{
			Addr:           ":5000",
			MaxUploadBytes: 10 * 1024 * 1024,
		},
	}
}

// Validate checks the settings for values the pipeline cannot run with.
func (s AppSettings) Validate() error {
	p := s.Pipeline
	if p.ChunkSize <= 0 || p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: chunk size %d must exceed overlap %d >= 0",
			ErrInvalidInput, p.ChunkSize, p.ChunkOverlap)
	}
	if p.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidInput)
	}
	if s.Retrieval.Limit < 1 || s.Retrieval.Overfetch < 1 {
		return fmt.Errorf("%w: retrieval limit and overfetch must be positive", ErrInvalidInput)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.Storage.Backend)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "hashing-256",
	}
}

// DefaultLLMModels returns default models for each chat provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
