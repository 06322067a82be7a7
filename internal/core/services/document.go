package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// webPlaceholder is the content of a web document until its page is scraped.
const webPlaceholder = "Processing..."

// DocumentService ingests documents into the knowledge base.
type DocumentService struct {
	lifecycle  *LifecycleManager
	vectors    driven.VectorStore
	pipeline   *EmbeddingPipeline
	registry   driven.NormaliserRegistry
	searcher   driven.WebSearcher
	scraper    driven.Scraper
	maxUpload  int64
	webResults int
}

// DocumentConfig holds the ingestion limits.
type DocumentConfig struct {
	// MaxUploadBytes rejects larger payloads. Zero disables the check.
	MaxUploadBytes int64

	// WebResults is how many hits AcquireFromWeb registers.
	WebResults int
}

// NewDocumentService creates a new document service.
// searcher and scraper are optional; without them AcquireFromWeb fails
// with ErrWebSearchUnavailable.
func NewDocumentService(
	lifecycle *LifecycleManager,
	vectors driven.VectorStore,
	pipeline *EmbeddingPipeline,
	registry driven.NormaliserRegistry,
	searcher driven.WebSearcher,
	scraper driven.Scraper,
	cfg DocumentConfig,
) *DocumentService {
	if cfg.WebResults < 1 {
		cfg.WebResults = domain.DefaultAppSettings().WebSearch.Results
	}
	return &DocumentService{
		lifecycle:  lifecycle,
		vectors:    vectors,
		pipeline:   pipeline,
		registry:   registry,
		searcher:   searcher,
		scraper:    scraper,
		maxUpload:  cfg.MaxUploadBytes,
		webResults: cfg.WebResults,
	}
}

// Upload extracts text from raw, registers the document and starts the
// embedding pipeline. No document is created when extraction fails.
func (s *DocumentService) Upload(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil || strings.TrimSpace(raw.Filename) == "" {
		return nil, fmt.Errorf("%w: upload needs a filename", domain.ErrInvalidInput)
	}
	if s.maxUpload > 0 && int64(len(raw.Content)) > s.maxUpload {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrFileTooLarge, raw.Filename, len(raw.Content), s.maxUpload)
	}

	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}

	doc, err := s.lifecycle.Create(ctx, &domain.Document{
		Filename: raw.Filename,
		Content:  result.Content,
		FileType: result.FileType,
		Size:     int64(len(raw.Content)),
		Source:   domain.SourceUpload,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", raw.Filename, err)
	}

	logger.Info("Uploaded %s as %s (%s, %d bytes)", doc.Filename, doc.ID, doc.FileType, doc.Size)
	s.pipeline.Process(ctx, doc.ID, doc.Content)
	return doc, nil
}

// IngestFile reads a file from disk and uploads it under its base name.
func (s *DocumentService) IngestFile(ctx context.Context, path string) (*domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if s.maxUpload > 0 && info.Size() > s.maxUpload {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrFileTooLarge, path, info.Size(), s.maxUpload)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return s.Upload(ctx, &domain.RawDocument{
		Filename: filepath.Base(path),
		URI:      path,
		Content:  content,
	})
}

// AcquireFromWeb searches the web for query and registers one web document
// per hit. Pages are scraped and embedded in the background. A failed
// search yields an empty list; per-hit failures are logged and skipped.
func (s *DocumentService) AcquireFromWeb(ctx context.Context, query string) ([]domain.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.searcher == nil || s.scraper == nil {
		return nil, domain.ErrWebSearchUnavailable
	}

	logger.Section("Web Acquisition")
	hits, err := s.searcher.Search(ctx, query, s.webResults)
	if err != nil {
		logger.Warn("acquire: web search for %q failed: %v", query, err)
		return []domain.Document{}, nil
	}
	logger.Debug("Web search returned %d hits for %q", len(hits), query)

	docs := make([]domain.Document, 0, len(hits))
	for _, hit := range hits {
		title := strings.TrimSpace(hit.Title)
		if title == "" {
			title = hit.URL
		}

		doc, err := s.lifecycle.Create(ctx, &domain.Document{
			Filename: title,
			Content:  webPlaceholder,
			FileType: domain.FileTypeWeb,
			Source:   domain.SourceWebSearch,
			URL:      hit.URL,
		})
		if err != nil {
			logger.Warn("acquire: register %s: %v", hit.URL, err)
			continue
		}

		s.pipeline.Go(ctx, func(runCtx context.Context) {
			s.scrapeAndProcess(runCtx, doc.ID, hit.URL)
		})
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (s *DocumentService) scrapeAndProcess(ctx context.Context, documentID, url string) {
	text, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		logger.Warn("acquire: %v", err)
		if err := s.lifecycle.MarkFailed(context.WithoutCancel(ctx), documentID, err); err != nil {
			logger.Error("acquire: mark %s failed: %v", documentID, err)
		}
		return
	}

	if err := s.lifecycle.UpdateContent(ctx, documentID, text); err != nil {
		logger.Warn("acquire: update %s: %v", documentID, err)
		return
	}
	if _, err := s.pipeline.ProcessSync(ctx, documentID, text); err != nil {
		logger.Warn("acquire: document %s failed: %v", documentID, err)
	}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.lifecycle.List(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.lifecycle.Get(ctx, documentID)
}

// Chunks returns the stored chunks of a document ordered by position.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.VectorChunk, error) {
	if _, err := s.lifecycle.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.vectors.ListByDocument(ctx, documentID)
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if err := s.lifecycle.Delete(ctx, documentID); err != nil {
		return err
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}

// Stats summarises the knowledge base.
func (s *DocumentService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.lifecycle.Stats(ctx)
}

// Wait blocks until background processing has finished.
func (s *DocumentService) Wait() {
	s.pipeline.Wait()
}
