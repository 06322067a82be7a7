package domain

// RawDocument represents opaque bytes handed to ingestion.
// It is the input to extraction, before any text exists.
type RawDocument struct {
	// Filename is the upload name or file base name.
	Filename string

	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
