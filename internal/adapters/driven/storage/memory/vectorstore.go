package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Chunks are kept in insertion order so that equal scores rank stably.
type VectorStore struct {
	mu     sync.RWMutex
	chunks []domain.VectorChunk
	byID   map[string]int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		byID: make(map[string]int),
	}
}

// Insert stores a chunk, assigning an ID when it has none.
func (s *VectorStore) Insert(_ context.Context, chunk domain.VectorChunk) (domain.VectorChunk, error) {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	chunk = cloneChunk(chunk)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[chunk.ID]; exists {
		return domain.VectorChunk{}, fmt.Errorf("chunk %s: %w", chunk.ID, domain.ErrAlreadyExists)
	}
	s.byID[chunk.ID] = len(s.chunks)
	s.chunks = append(s.chunks, chunk)
	return cloneChunk(chunk), nil
}

// Get retrieves a chunk by ID.
func (s *VectorStore) Get(_ context.Context, id string) (*domain.VectorChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunk := cloneChunk(s.chunks[i])
	return &chunk, nil
}

// Search scores every chunk against query and returns the best limit hits.
func (s *VectorStore) Search(_ context.Context, query []float32, limit int) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	s.mu.RLock()
	scored := make([]domain.ScoredChunk, len(s.chunks))
	for i := range s.chunks {
		scored[i] = domain.ScoredChunk{
			Chunk:      cloneChunk(s.chunks[i]),
			Similarity: domain.CosineSimilarity(query, s.chunks[i].Embedding),
		}
	}
	s.mu.RUnlock()

	return domain.RankScored(scored, limit), nil
}

// ListByDocument returns a document's chunks ordered by position.
func (s *VectorStore) ListByDocument(_ context.Context, documentID string) ([]domain.VectorChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.VectorChunk
	for i := range s.chunks {
		if s.chunks[i].DocumentID == documentID {
			result = append(result, cloneChunk(s.chunks[i]))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// DeleteByDocument removes all chunks of a document.
func (s *VectorStore) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0, nil
	}

	// Clear the tail so removed embeddings can be collected.
	for i := len(kept); i < len(s.chunks); i++ {
		s.chunks[i] = domain.VectorChunk{}
	}
	s.chunks = kept
	s.byID = make(map[string]int, len(kept))
	for i := range s.chunks {
		s.byID[s.chunks[i].ID] = i
	}
	return removed, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func cloneChunk(c domain.VectorChunk) domain.VectorChunk {
	if c.Embedding != nil {
		c.Embedding = append([]float32(nil), c.Embedding...)
	}
	return c
}
