package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// RetrievalService finds context for a question.
type RetrievalService interface {
	// Retrieve returns at most limit results, one per document, best first.
	// A non-positive limit uses the configured default.
	// Fails with *domain.RetrievalError when the query cannot be embedded.
	Retrieve(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)

	// RetrieveContext is Retrieve for the chat flow: failures are logged
	// and an empty result set is returned instead.
	RetrieveContext(ctx context.Context, query string, limit int) []domain.SearchResult

	// FormatContext renders results as numbered context blocks.
	FormatContext(results []domain.SearchResult) string

	// ExtractSources converts results into citations.
	ExtractSources(results []domain.SearchResult) []domain.SourceCitation
}
