package mcp

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results   []domain.SearchResult
	err       error
	lastLimit int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, limit int) ([]domain.SearchResult, error) {
	m.lastLimit = limit
	return m.results, m.err
}

func (m *mockRetrievalService) RetrieveContext(_ context.Context, _ string, _ int) []domain.SearchResult {
	return m.results
}

func (m *mockRetrievalService) FormatContext(results []domain.SearchResult) string {
	return services.FormatContext(results)
}

func (m *mockRetrievalService) ExtractSources(results []domain.SearchResult) []domain.SourceCitation {
	return services.ExtractSources(results)
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply     *domain.ChatReply
	err       error
	available bool
	question  string
}

func (m *mockChatService) Ask(_ context.Context, _ []domain.ChatMessage, message string) (*domain.ChatReply, error) {
	m.question = message
	return m.reply, m.err
}

func (m *mockChatService) Available() bool {
	return m.available
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ *domain.RawDocument) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) IngestFile(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) AcquireFromWeb(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.VectorChunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (*domain.Stats, error) {
	return &domain.Stats{}, m.err
}

func (m *mockDocumentService) Wait() {}
