package tui

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

type mockChat struct {
	reply *domain.ChatReply
	err   error
}

func (m *mockChat) Ask(_ context.Context, _ []domain.ChatMessage, _ string) (*domain.ChatReply, error) {
	return m.reply, m.err
}

func (m *mockChat) Available() bool { return true }

type mockRetrieval struct {
	results []domain.SearchResult
	err     error
}

func (m *mockRetrieval) Retrieve(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockRetrieval) RetrieveContext(_ context.Context, _ string, _ int) []domain.SearchResult {
	return m.results
}

func (m *mockRetrieval) FormatContext(results []domain.SearchResult) string {
	return services.FormatContext(results)
}

func (m *mockRetrieval) ExtractSources(results []domain.SearchResult) []domain.SourceCitation {
	return services.ExtractSources(results)
}

type mockDocuments struct {
	driving.DocumentService
	documents []domain.Document
}

func (m *mockDocuments) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, nil
}
