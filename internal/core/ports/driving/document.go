package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// DocumentService manages the knowledge base.
type DocumentService interface {
	// Upload extracts text from an upload, registers the document and
	// starts embedding in the background. Extraction failures return
	// *domain.ExtractionError and no document is created.
	Upload(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// IngestFile reads a file from disk and uploads it.
	IngestFile(ctx context.Context, path string) (*domain.Document, error)

	// AcquireFromWeb searches the web and registers one document per hit.
	// Pages are scraped and embedded in the background.
	AcquireFromWeb(ctx context.Context, query string) ([]domain.Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns the stored chunks of a document in order.
	Chunks(ctx context.Context, documentID string) ([]domain.VectorChunk, error)

	// Delete removes a document and all of its chunks.
	Delete(ctx context.Context, documentID string) error

	// Stats summarises the knowledge base.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Wait blocks until background processing has finished.
	Wait()
}
