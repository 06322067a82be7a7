package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Normaliser extracts text from raw uploaded bytes.
// Each normaliser handles specific MIME types (e.g., PDF, HTML).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	// A trailing "/*" matches a whole family, e.g. "text/*".
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text from a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of extraction.
// Chunking is handled later by the embedding pipeline.
type NormaliseResult struct {
	// Content is the extracted text.
	Content string

	// FileType is the document kind to record.
	FileType domain.FileType

	// Title overrides the filename when the format carries one.
	Title string
}
