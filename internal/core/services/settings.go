package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize      = "pipeline.chunk_size"
	keyChunkOverlap   = "pipeline.chunk_overlap"
	keyBatchSize      = "pipeline.batch_size"
	keyBatchDelayMS   = "pipeline.batch_delay_ms"
	keyCallTimeoutSec = "pipeline.call_timeout_secs"

	keyRetrievalLimit     = "retrieval.limit"
	keyRetrievalOverfetch = "retrieval.overfetch"

	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKeyEnv = "embedding.api_key_env"
	keyEmbedRetries   = "embedding.max_retries"
	keyEmbedRPS       = "embedding.requests_per_second"
	keyEmbedBurst     = "embedding.burst"

	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKeyEnv    = "llm.api_key_env"
	keyLLMHistoryLimit = "llm.history_limit"

	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
	keyStorageDSN     = "storage.postgres_dsn"

	keySearchProvider  = "search.provider"
	keySearchAPIKeyEnv = "search.api_key_env"
	keySearchResults   = "search.results"

	keyServerAddr      = "server.addr"
	keyServerMaxUpload = "server.max_upload_bytes"
)

// SettingsService manages application settings stored in the config file.
// API keys are never stored; they are read from the environment variables
// the config names.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings with defaults filled in.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Pipeline: domain.PipelineSettings{
			ChunkSize:    s.getInt(keyChunkSize, d.Pipeline.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, d.Pipeline.ChunkOverlap),
			BatchSize:    s.getInt(keyBatchSize, d.Pipeline.BatchSize),
			BatchDelay: time.Duration(s.getInt(keyBatchDelayMS,
				int(d.Pipeline.BatchDelay/time.Millisecond))) * time.Millisecond,
			CallTimeout: time.Duration(s.getInt(keyCallTimeoutSec,
				int(d.Pipeline.CallTimeout/time.Second))) * time.Second,
		},
		Retrieval: domain.RetrievalSettings{
			Limit:     s.getInt(keyRetrievalLimit, d.Retrieval.Limit),
			Overfetch: s.getInt(keyRetrievalOverfetch, d.Retrieval.Overfetch),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKeyEnv:         s.getString(keyEmbedAPIKeyEnv, d.Embedding.APIKeyEnv),
			MaxRetries:        s.getInt(keyEmbedRetries, d.Embedding.MaxRetries),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
			Burst:             s.getInt(keyEmbedBurst, d.Embedding.Burst),
		},
		LLM: domain.LLMSettings{
			Provider:     s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:      s.configStore.GetString(keyLLMBaseURL),
			APIKeyEnv:    s.getString(keyLLMAPIKeyEnv, d.LLM.APIKeyEnv),
			HistoryLimit: s.getInt(keyLLMHistoryLimit, d.LLM.HistoryLimit),
		},
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(d.Storage.Backend),
			DataDir:     s.configStore.GetString(keyStorageDataDir),
			PostgresDSN: s.configStore.GetString(keyStorageDSN),
		},
		WebSearch: domain.WebSearchSettings{
			Provider:  s.getString(keySearchProvider, d.WebSearch.Provider),
			APIKeyEnv: s.getString(keySearchAPIKeyEnv, d.WebSearch.APIKeyEnv),
			Results:   s.getInt(keySearchResults, d.WebSearch.Results),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, d.Server.Addr),
			MaxUploadBytes: int64(s.getInt(keyServerMaxUpload, int(d.Server.MaxUploadBytes))),
		},
	}

	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	settings.Embedding.APIKey = s.lookupKey(settings.Embedding.APIKeyEnv)
	settings.LLM.APIKey = s.lookupKey(settings.LLM.APIKeyEnv)
	settings.WebSearch.APIKey = s.lookupKey(settings.WebSearch.APIKeyEnv)

	return settings, nil
}

// Save persists application settings. Resolved API keys are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyChunkOverlap, settings.Pipeline.ChunkOverlap},
		{keyBatchSize, settings.Pipeline.BatchSize},
		{keyBatchDelayMS, int(settings.Pipeline.BatchDelay / time.Millisecond)},
		{keyCallTimeoutSec, int(settings.Pipeline.CallTimeout / time.Second)},
		{keyRetrievalLimit, settings.Retrieval.Limit},
		{keyRetrievalOverfetch, settings.Retrieval.Overfetch},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedAPIKeyEnv, settings.Embedding.APIKeyEnv},
		{keyEmbedRetries, settings.Embedding.MaxRetries},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMAPIKeyEnv, settings.LLM.APIKeyEnv},
		{keyLLMHistoryLimit, settings.LLM.HistoryLimit},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyStorageDSN, settings.Storage.PostgresDSN},
		{keySearchProvider, settings.WebSearch.Provider},
		{keySearchAPIKeyEnv, settings.WebSearch.APIKeyEnv},
		{keySearchResults, settings.WebSearch.Results},
		{keyServerAddr, settings.Server.Addr},
		{keyServerMaxUpload, int(settings.Server.MaxUploadBytes)},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if err := s.configStore.Save(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider. An empty model
// selects the provider default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Embedding.Provider != provider {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.Provider = provider
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.Model = model

	return s.Save(settings)
}

// SetLLMProvider configures the chat model provider. An empty model selects
// the provider default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() || provider == domain.AIProviderLocal {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.LLM.Provider != provider {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.Provider = provider
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.Model = model

	return s.Save(settings)
}

// Validate checks that the current settings can run the pipeline and that
// every enabled provider has its API key.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s needs $%s",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, settings.Embedding.APIKeyEnv)
	}
	if settings.LLM.Provider.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return fmt.Errorf("%w: LLM provider %s needs $%s",
			domain.ErrLLMUnavailable, settings.LLM.Provider, settings.LLM.APIKeyEnv)
	}
	if settings.WebSearch.Provider == "serper" && settings.WebSearch.APIKey == "" {
		return fmt.Errorf("%w: serper needs $%s", domain.ErrWebSearchUnavailable, settings.WebSearch.APIKeyEnv)
	}
	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres backend needs %s", domain.ErrInvalidInput, keyStorageDSN)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults. A key that is present
// wins even when its value is zero.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(keyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) lookupKey(envName string) string {
	if envName == "" {
		return ""
	}
	return s.getenv(envName)
}
