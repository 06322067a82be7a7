package httpapi

import (
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// documentResponse is the wire form of a document. Content is only
// included when a single document is fetched.
type documentResponse struct {
	ID            string     `json:"id"`
	Filename      string     `json:"filename"`
	Content       string     `json:"content,omitempty"`
	FileType      string     `json:"fileType"`
	Size          int64      `json:"size"`
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	URL           string     `json:"url,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	ChunkCount    int        `json:"chunkCount"`
	EmbeddedCount int        `json:"embeddedCount"`
}

func toDocumentResponse(doc *domain.Document, withContent bool) documentResponse {
	resp := documentResponse{
		ID:            doc.ID,
		Filename:      doc.Filename,
		FileType:      doc.FileType.String(),
		Size:          doc.Size,
		Status:        doc.Status.String(),
		Source:        doc.Source.String(),
		URL:           doc.URL,
		CreatedAt:     doc.CreatedAt,
		ProcessedAt:   doc.ProcessedAt,
		LastError:     doc.LastError,
		ChunkCount:    doc.ChunkCount,
		EmbeddedCount: doc.EmbeddedCount,
	}
	if withContent {
		resp.Content = doc.Content
	}
	return resp
}

func toDocumentList(docs []domain.Document) []documentResponse {
	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i], false)
	}
	return out
}

type chunkResponse struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Position   int    `json:"position"`
	Embedded   bool   `json:"embedded"`
}

type acquireRequest struct {
	Query string `json:"query"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResultResponse struct {
	Chunk      chunkResponse    `json:"chunk"`
	Document   documentResponse `json:"document"`
	Similarity float64          `json:"similarity"`
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest carries the conversation; the last message is the question.
type chatRequest struct {
	Messages []messageRequest `json:"messages"`
}

type sourceResponse struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	Relevance  int    `json:"relevance"`
	FileType   string `json:"fileType"`
	URL        string `json:"url,omitempty"`
}

type chatResponse struct {
	Content  string           `json:"content"`
	Sources  []sourceResponse `json:"sources"`
	Grounded bool             `json:"grounded"`
}

type statsResponse struct {
	DocumentsCount  int    `json:"documentsCount"`
	ProcessedCount  int    `json:"processedCount"`
	FailedCount     int    `json:"failedCount"`
	ProcessingCount int    `json:"processingCount"`
	ChunksCount     int    `json:"chunksCount"`
	TotalSizeBytes  int64  `json:"totalSizeBytes"`
	TotalSizeMB     string `json:"totalSizeMB"`
	Status          string `json:"status"`
}
