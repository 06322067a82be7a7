package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// WebSearcher finds pages for automatic knowledge acquisition.
type WebSearcher interface {
	// Search returns up to limit results for the query.
	Search(ctx context.Context, query string, limit int) ([]domain.WebResult, error)
}

// Scraper fetches a page and returns its readable text.
type Scraper interface {
	// Scrape returns cleaned page text or a *domain.ScrapeError.
	Scrape(ctx context.Context, url string) (string, error)
}
