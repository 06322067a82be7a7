package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

const contextHeader = "Relevant information from knowledge base:\n\n"

// RetrievalService finds the chunks that best answer a question, keeping
// only the best chunk of each processed document.
type RetrievalService struct {
	docs      driven.DocumentStore
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	limit     int
	overfetch int
}

// NewRetrievalService creates a retrieval service. embedder may be nil, in
// which case every retrieval fails with ErrEmbeddingUnavailable.
func NewRetrievalService(
	docs driven.DocumentStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *RetrievalService {
	defaults := domain.DefaultAppSettings().Retrieval
	if settings.Limit < 1 {
		settings.Limit = defaults.Limit
	}
	if settings.Overfetch < 1 {
		settings.Overfetch = defaults.Overfetch
	}
	return &RetrievalService{
		docs:      docs,
		vectors:   vectors,
		embedder:  embedder,
		limit:     settings.Limit,
		overfetch: settings.Overfetch,
	}
}

// Retrieve embeds query and returns at most limit results, one per document.
// Limits above domain.MaxRetrievalLimit are lowered to it.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	logger.Section("Retrieval")
	if limit <= 0 {
		limit = s.limit
	}
	limit = min(limit, domain.MaxRetrievalLimit)
	logger.Debug("Query: %q, limit: %d", query, limit)

	if s.embedder == nil {
		return nil, &domain.RetrievalError{Query: query, Err: domain.ErrEmbeddingUnavailable}
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.RetrievalError{Query: query, Err: fmt.Errorf("embed query: %w", err)}
	}
	// An unembeddable query (quota, no tokens) cannot rank anything.
	if !domain.Rankable(vec) {
		return []domain.SearchResult{}, nil
	}

	hits, err := s.vectors.Search(ctx, vec, fetchLimit(limit, s.overfetch))
	if err != nil {
		return nil, &domain.RetrievalError{Query: query, Err: fmt.Errorf("search vectors: %w", err)}
	}
	logger.Debug("Vector store returned %d hits", len(hits))

	results := make([]domain.SearchResult, 0, min(limit, len(hits)))
	seen := make(map[string]bool)
	for _, hit := range hits {
		if len(results) >= limit {
			break
		}
		docID := hit.Chunk.DocumentID
		if seen[docID] {
			continue
		}

		doc, err := s.docs.GetDocument(ctx, docID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, &domain.RetrievalError{Query: query, Err: fmt.Errorf("get document %s: %w", docID, err)}
		}
		if doc.Status != domain.StatusProcessed {
			continue
		}

		seen[docID] = true
		results = append(results, domain.SearchResult{
			Chunk:      hit.Chunk,
			Document:   *doc,
			Similarity: hit.Similarity,
		})
	}

	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// fetchLimit is the number of hits to request so that limit documents
// survive deduplication. It saturates instead of overflowing.
func fetchLimit(limit, overfetch int) int {
	if overfetch > 1 && limit > math.MaxInt/overfetch {
		return math.MaxInt
	}
	return limit * max(overfetch, 1)
}

// RetrieveContext is Retrieve for the chat flow. Failures are logged and
// produce an empty result set.
func (s *RetrievalService) RetrieveContext(ctx context.Context, query string, limit int) []domain.SearchResult {
	results, err := s.Retrieve(ctx, query, limit)
	if err != nil {
		logger.Warn("retrieval: %v", err)
		return []domain.SearchResult{}
	}
	return results
}

// FormatContext renders results as numbered blocks. No results gives "".
func (s *RetrievalService) FormatContext(results []domain.SearchResult) string {
	return FormatContext(results)
}

// ExtractSources converts results into citations.
func (s *RetrievalService) ExtractSources(results []domain.SearchResult) []domain.SourceCitation {
	return ExtractSources(results)
}

// FormatContext renders results as the context block handed to the chat model.
func FormatContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] From \"%s\":\n%s\n\n", i+1, r.Document.Filename, r.Chunk.Content)
	}
	return b.String()
}

// ExtractSources converts results into citations in the same order.
func ExtractSources(results []domain.SearchResult) []domain.SourceCitation {
	sources := make([]domain.SourceCitation, 0, len(results))
	for _, r := range results {
		sources = append(sources, domain.SourceCitation{
			DocumentID: r.Document.ID,
			Filename:   r.Document.Filename,
			Relevance:  domain.Relevance(r.Similarity),
			FileType:   r.Document.FileType,
			URL:        r.Document.URL,
		})
	}
	return sources
}
