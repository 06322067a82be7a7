package domain

import (
	"fmt"
	"math"
	"sort"
)

// MaxRetrievalLimit caps how many documents one retrieval may return.
const MaxRetrievalLimit = 100

// CheckRetrievalLimit validates a caller-supplied result limit. Zero and
// negative limits select the configured default and are accepted.
func CheckRetrievalLimit(limit int) error {
	if limit > MaxRetrievalLimit {
		return fmt.Errorf("%w: limit %d exceeds maximum of %d", ErrInvalidInput, limit, MaxRetrievalLimit)
	}
	return nil
}

// ScoredChunk is a vector store hit before it is joined to its document.
type ScoredChunk struct {
	Chunk      VectorChunk
	Similarity float64
}

// RankScored orders hits by similarity, highest first, keeping the input
// order for ties, and truncates to limit. Stores pass hits in insertion order.
func RankScored(scored []ScoredChunk, limit int) []ScoredChunk {
	if limit <= 0 {
		return []ScoredChunk{}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// SearchResult pairs a retrieved chunk with its parent document.
// Results are transient and never persisted.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk VectorChunk

	// Document is the chunk's parent.
	Document Document

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64
}

// SourceCitation is a reference to a document that grounded a reply.
type SourceCitation struct {
	DocumentID string
	Filename   string

	// Relevance is round(similarity*100), clamped to 0–100.
	Relevance int

	FileType FileType
	URL      string
}

// Relevance converts a cosine similarity into a 0–100 score.
func Relevance(similarity float64) int {
	r := int(math.Round(similarity * 100))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// WebResult is a single hit from a web search provider.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
}
