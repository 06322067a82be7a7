package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	s := NewSettingsService(store)
	s.getenv = func(k string) string { return env[k] }
	return s, store
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	s, _ := newTestSettings(nil)

	settings, err := s.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Pipeline, settings.Pipeline)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, "hashing-256", settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderNone, settings.LLM.Provider)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
	assert.Equal(t, ":5000", settings.Server.Addr)
	assert.Equal(t, int64(10*1024*1024), settings.Server.MaxUploadBytes)
	assert.NoError(t, s.Validate())
}

func TestSettingsService_Get_FromConfig(t *testing.T) {
	s, store := newTestSettings(map[string]string{"MY_KEY": "sk-test", "SERPER_API_KEY": "serp"})
	for k, v := range map[string]any{
		"pipeline.chunk_size":           500,
		"pipeline.chunk_overlap":        0,
		"pipeline.batch_delay_ms":       250,
		"embedding.provider":            "openai",
		"embedding.api_key_env":         "MY_KEY",
		"embedding.max_retries":         0,
		"embedding.requests_per_second": 2.5,
		"llm.provider":                  "openai",
		"llm.api_key_env":               "MY_KEY",
		"storage.backend":               "sqlite",
		"search.provider":               "serper",
		"search.results":                5,
	} {
		require.NoError(t, store.Set(k, v))
	}

	settings, err := s.Get()
	require.NoError(t, err)

	assert.Equal(t, 500, settings.Pipeline.ChunkSize)
	assert.Equal(t, 0, settings.Pipeline.ChunkOverlap)
	assert.Equal(t, 250*time.Millisecond, settings.Pipeline.BatchDelay)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Equal(t, 0, settings.Embedding.MaxRetries)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Equal(t, "sk-test", settings.LLM.APIKey)
	assert.Equal(t, domain.StorageSQLite, settings.Storage.Backend)
	assert.Equal(t, "serp", settings.WebSearch.APIKey)
	assert.True(t, settings.WebSearch.IsConfigured())
	assert.NoError(t, s.Validate())
}

func TestSettingsService_Get_InvalidValuesFallBack(t *testing.T) {
	s, store := newTestSettings(nil)
	require.NoError(t, store.Set("embedding.provider", "carrier-pigeon"))
	require.NoError(t, store.Set("storage.backend", "floppy"))

	settings, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, domain.StorageMemory, settings.Storage.Backend)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	s, store := newTestSettings(map[string]string{"OPENAI_API_KEY": "sk-env"})

	settings := domain.DefaultAppSettings()
	settings.Pipeline.ChunkSize = 800
	settings.Retrieval.Limit = 7
	settings.Embedding.Provider = domain.AIProviderOllama
	settings.Embedding.Model = "all-minilm"
	settings.Embedding.APIKey = "must-not-be-written"
	require.NoError(t, s.Save(&settings))

	_, written := store.Get("embedding.api_key")
	assert.False(t, written)

	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, 800, got.Pipeline.ChunkSize)
	assert.Equal(t, 7, got.Retrieval.Limit)
	assert.Equal(t, domain.AIProviderOllama, got.Embedding.Provider)
	assert.Equal(t, "all-minilm", got.Embedding.Model)
	assert.Equal(t, "sk-env", got.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	s, _ := newTestSettings(nil)

	require.NoError(t, s.SetEmbeddingProvider(domain.AIProviderOllama, ""))
	settings, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)

	require.NoError(t, s.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large"))
	settings, err = s.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)

	assert.ErrorIs(t, s.SetEmbeddingProvider("bogus", ""), domain.ErrInvalidInput)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	s, _ := newTestSettings(nil)

	require.NoError(t, s.SetLLMProvider(domain.AIProviderOllama, ""))
	settings, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", settings.LLM.Model)

	assert.ErrorIs(t, s.SetLLMProvider(domain.AIProviderLocal, ""), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr error
	}{
		{"overlap not below size", map[string]any{"pipeline.chunk_size": 100, "pipeline.chunk_overlap": 100}, domain.ErrInvalidInput},
		{"zero batch size", map[string]any{"pipeline.batch_size": 0}, domain.ErrInvalidInput},
		{"openai embedding without key", map[string]any{"embedding.provider": "openai"}, domain.ErrEmbeddingUnavailable},
		{"openai llm without key", map[string]any{"llm.provider": "openai"}, domain.ErrLLMUnavailable},
		{"serper without key", map[string]any{"search.provider": "serper"}, domain.ErrWebSearchUnavailable},
		{"postgres without dsn", map[string]any{"storage.backend": "postgres"}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestSettings(nil)
			for k, v := range tt.values {
				require.NoError(t, store.Set(k, v))
			}
			assert.ErrorIs(t, s.Validate(), tt.wantErr)
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	s, _ := newTestSettings(nil)
	assert.Equal(t, domain.DefaultAppSettings(), s.GetDefaults())
}
