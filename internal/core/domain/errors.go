package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles a MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTransition indicates an illegal document status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrFileTooLarge indicates an upload exceeded the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrLLMUnavailable indicates the chat model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrWebSearchUnavailable indicates web acquisition is not configured.
	ErrWebSearchUnavailable = errors.New("web search unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates the provider account has no quota left.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrUnauthorized indicates the provider rejected the credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// EmbeddingServiceError reports that the embedding API was unreachable
// or rejected a request.
type EmbeddingServiceError struct {
	// Op names the failing step, e.g. "send request".
	Op string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// RetryAfter is the provider's backoff hint, when it sent one.
	RetryAfter time.Duration

	Err error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service: %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("embedding service: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the call may succeed.
func (e *EmbeddingServiceError) Temporary() bool {
	if errors.Is(e.Err, ErrQuotaExceeded) || errors.Is(e.Err, ErrUnauthorized) {
		return false
	}
	if e.StatusCode == 0 || e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

// RetrievalError reports that context could not be retrieved for a query.
// Chat callers treat it as "no context available".
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ExtractionError reports that no text could be extracted from an upload.
type ExtractionError struct {
	Filename string
	MIMEType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Filename, e.MIMEType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ScrapeError reports that a web page could not be fetched or parsed.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
