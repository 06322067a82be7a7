package domain

import (
	"fmt"
	"time"
)

// FileType identifies the kind of content a document was extracted from.
type FileType string

// Supported file types.
const (
	FileTypeText FileType = "text"
	FileTypePDF  FileType = "pdf"
	FileTypeDocx FileType = "docx"
	FileTypeWeb  FileType = "web"
)

// IsValid returns true if the file type is recognised.
func (f FileType) IsValid() bool {
	switch f {
	case FileTypeText, FileTypePDF, FileTypeDocx, FileTypeWeb:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f FileType) String() string {
	return string(f)
}

// DocumentSource records how a document entered the knowledge base.
type DocumentSource string

// Document sources.
const (
	SourceUpload    DocumentSource = "upload"
	SourceWebSearch DocumentSource = "web_search"
)

// String returns the string representation.
func (s DocumentSource) String() string {
	return string(s)
}

// DocumentStatus is the processing state of a document.
//
// The only legal transitions are processing → processed and
// processing → failed. Both terminal states are final.
type DocumentStatus string

// Document statuses.
const (
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusProcessed, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for processed and failed.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return s == StatusProcessing && next.IsTerminal()
}

// Transition returns next if the move is legal, or ErrInvalidTransition.
func (s DocumentStatus) Transition(next DocumentStatus) (DocumentStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents an ingested document with its processing state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the display name (upload filename or page title).
	Filename string

	// Content is the full extracted text before chunking.
	Content string

	// FileType is the kind of content the text came from.
	FileType FileType

	// Size is the original payload size in bytes.
	Size int64

	// Status is the current processing state.
	Status DocumentStatus

	// Source records how the document was acquired.
	Source DocumentSource

	// URL is the origin for web documents.
	URL string

	// CreatedAt is when the document was registered.
	CreatedAt time.Time

	// ProcessedAt is set when the document reaches a terminal status.
	ProcessedAt *time.Time

	// LastError holds the diagnostic for a failed document.
	// Content is never overwritten with error text.
	LastError string

	// ChunkCount is the number of chunks the chunker produced.
	ChunkCount int

	// EmbeddedCount is the number of chunks stored with a rankable embedding
	// (see Rankable). Empty and all-zero vectors are stored but not counted.
	EmbeddedCount int
}

// Grounded reports whether at least one chunk of the document can be ranked.
func (d *Document) Grounded() bool {
	return d.EmbeddedCount > 0
}

// VectorChunk is a window of a document's text together with its embedding.
// Chunks are created once and never mutated.
type VectorChunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID references the parent Document. It is a weak reference
	// used for lookup and deduplication.
	DocumentID string

	// Content is the trimmed window text.
	Content string

	// Embedding is the vector representation. It may be empty when the
	// embedding provider could not produce one.
	Embedding []float32

	// StartIndex is the byte offset of the window in the parent content.
	StartIndex int

	// EndIndex is the exclusive end offset of the window.
	EndIndex int

	// Position is the ordinal of the chunk within the document.
	Position int
}

// Stats summarises the knowledge base.
type Stats struct {
	Documents      int
	Processed      int
	Failed         int
	Processing     int
	TotalSizeBytes int64
	Chunks         int
}

// TotalSizeMB returns the total document size in megabytes, rounded to two places.
func (s Stats) TotalSizeMB() float64 {
	mb := float64(s.TotalSizeBytes) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
