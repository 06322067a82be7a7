// Package app wires adapters and core services into a running application.
package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/websearch/scraper"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/websearch/serper"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/logger"
	"github.com/custodia-labs/ragdesk/internal/normalisers"
)

// App holds the assembled services.
type App struct {
	Settings  *services.SettingsService
	Documents *services.DocumentService
	Retrieval *services.RetrievalService
	Chat      *services.ChatService

	AppSettings *domain.AppSettings
	Warnings    []string

	pipeline *services.EmbeddingPipeline
	ai       *ai.InitResult
	closers  []func() error
}

// Options controls how the application is assembled.
type Options struct {
	// ConfigDir holds config.toml and prompts/. Empty means ~/.ragdesk.
	ConfigDir string

	// ConfigStore overrides the TOML store, mainly for tests.
	ConfigStore driven.ConfigStore
}

// New loads settings and builds every service. Missing AI or web search
// configuration is not fatal: the affected feature reports itself
// unavailable and a warning is recorded.
func New(opts Options) (*App, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		configDir = dir
	}

	configStore := opts.ConfigStore
	if configStore == nil {
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		configStore = store
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		Settings:    settingsService,
		AppSettings: settings,
	}

	docs, vectors, err := a.openStorage(&settings.Storage, configDir)
	if err != nil {
		return nil, err
	}

	a.ai = ai.Init(settings)
	a.Warnings = append(a.Warnings, a.ai.Warnings...)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	searcher, scrape := a.webAcquisition(&settings.WebSearch)

	lifecycle := services.NewLifecycleManager(docs, vectors)
	a.pipeline = services.NewEmbeddingPipeline(lifecycle, vectors, a.ai.EmbeddingService, settings.Pipeline)
	a.Retrieval = services.NewRetrievalService(docs, vectors, a.ai.EmbeddingService, settings.Retrieval)
	a.Documents = services.NewDocumentService(
		lifecycle, vectors, a.pipeline, normalisers.Default(), searcher, scrape,
		services.DocumentConfig{
			MaxUploadBytes: settings.Server.MaxUploadBytes,
			WebResults:     settings.WebSearch.Results,
		},
	)
	a.Chat = services.NewChatService(a.Retrieval, a.ai.LLMService, prompts, settings.LLM.HistoryLimit)

	for _, w := range a.Warnings {
		logger.Warn("%s", w)
	}
	return a, nil
}

// openStorage selects the configured backend.
func (a *App) openStorage(
	cfg *domain.StorageSettings,
	configDir string,
) (driven.DocumentStore, driven.VectorStore, error) {
	switch cfg.Backend {
	case domain.StorageSQLite:
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		logger.Debug("storage: sqlite at %s", store.Path())
		return store.DocumentStore(), store.VectorStore(), nil

	case domain.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("%w: storage.postgres_dsn is required", domain.ErrInvalidInput)
		}
		store, err := postgres.NewStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		logger.Debug("storage: postgres")
		return store.DocumentStore(), store.VectorStore(), nil

	default:
		logger.Debug("storage: memory")
		return memory.NewDocumentStore(), memory.NewVectorStore(), nil
	}
}

// webAcquisition returns nil collaborators when web search is not set up.
func (a *App) webAcquisition(cfg *domain.WebSearchSettings) (driven.WebSearcher, driven.Scraper) {
	if !cfg.IsConfigured() {
		return nil, nil
	}
	searcher, err := serper.New(serper.Config{APIKey: cfg.APIKey})
	if err != nil {
		a.Warnings = append(a.Warnings, err.Error())
		return nil, nil
	}
	return searcher, scraper.New(scraper.Config{})
}

// Close stops background processing and releases resources.
func (a *App) Close() error {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.ai != nil {
		a.ai.Close()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
