// Package chunker splits document text into fixed-size overlapping windows.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// DefaultChunkSize is the default window length in bytes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between consecutive windows.
const DefaultChunkOverlap = 100

// Span is one window of the input.
// Start and End are byte offsets of the window, before trimming.
type Span struct {
	Text  string
	Start int
	End   int
}

// Split slides a window of chunkSize bytes over text. Each window is trimmed
// and empty windows are dropped. The next window starts overlap bytes before
// the previous end, and the window ending at len(text) is the last one.
//
// Window edges are moved to rune boundaries, so offsets for ASCII text are
// exact and multi-byte text is never cut inside a character.
func Split(text string, chunkSize, overlap int) ([]Span, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d must exceed overlap %d >= 0",
			domain.ErrInvalidInput, chunkSize, overlap)
	}

	n := len(text)
	spans := make([]Span, 0, n/(chunkSize-overlap)+1)

	start := 0
	for start < n {
		end := start + chunkSize
		if end >= n {
			end = n
		} else {
			end = runeFloor(text, start, end)
		}

		if trimmed := strings.TrimSpace(text[start:end]); trimmed != "" {
			spans = append(spans, Span{Text: trimmed, Start: start, End: end})
		}

		if end == n {
			break
		}

		next := runeCeil(text, end-overlap)
		if next <= start {
			next = end
		}
		start = next
	}

	return spans, nil
}

// runeFloor moves i back to a rune boundary, staying above start.
func runeFloor(s string, start, i int) int {
	j := i
	for j > start && !utf8.RuneStart(s[j]) {
		j--
	}
	if j == start {
		// A single rune wider than the window; take it whole.
		return runeCeil(s, i)
	}
	return j
}

// runeCeil moves i forward to a rune boundary.
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// Processor turns document content into chunk records ready for embedding.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window length in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
// An overlap that is not below the chunk size is reported by Chunks.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window length.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Chunks splits content and returns one VectorChunk per window with a fresh
// ID and its position. Embeddings are left empty.
func (p *Processor) Chunks(documentID, content string) ([]domain.VectorChunk, error) {
	spans, err := Split(content, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.VectorChunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.VectorChunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Content:    s.Text,
			StartIndex: s.Start,
			EndIndex:   s.End,
			Position:   i,
		})
	}
	return chunks, nil
}
