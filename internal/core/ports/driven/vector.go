package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// VectorStore holds embedded chunks and answers similarity queries.
//
// Search is a full linear scan: O(n·D) per query. This is the first
// scaling bottleneck and is acceptable for a single-process deployment.
type VectorStore interface {
	// Insert stores a chunk. An empty ID is replaced with a fresh one.
	// Inserting an ID that already exists returns domain.ErrAlreadyExists.
	Insert(ctx context.Context, chunk domain.VectorChunk) (domain.VectorChunk, error)

	// Get retrieves a chunk by ID or returns domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.VectorChunk, error)

	// Search scores every stored chunk against query with cosine similarity
	// and returns at most limit hits, highest first. Ties keep insertion order.
	Search(ctx context.Context, query []float32, limit int) ([]domain.ScoredChunk, error)

	// ListByDocument returns a document's chunks ordered by position.
	ListByDocument(ctx context.Context, documentID string) ([]domain.VectorChunk, error)

	// DeleteByDocument removes all chunks of a document and returns how many were removed.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}
