package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

// mockDocumentService keeps documents in memory.
type mockDocumentService struct {
	documents map[string]*domain.Document
	chunks    map[string][]domain.VectorChunk
	order     []string
	acquired  []domain.Document
	err       error
	waited    bool
}

func newMockDocumentService() *mockDocumentService {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	doc1 := &domain.Document{
		ID: "doc-1", Filename: "garden.md", Content: "Tomatoes need sun.", FileType: domain.FileTypeText,
		Size: 18, Status: domain.StatusProcessed, Source: domain.SourceUpload, CreatedAt: created,
		ChunkCount: 1, EmbeddedCount: 1,
	}
	doc2 := &domain.Document{
		ID: "doc-2", Filename: "Rust Book", Content: "Processing...", FileType: domain.FileTypeWeb,
		Status: domain.StatusFailed, Source: domain.SourceWebSearch, URL: "https://example.com/rust",
		CreatedAt: created, LastError: "scrape failed",
	}
	return &mockDocumentService{
		documents: map[string]*domain.Document{"doc-1": doc1, "doc-2": doc2},
		chunks: map[string][]domain.VectorChunk{
			"doc-1": {{ID: "c1", DocumentID: "doc-1", Content: "Tomatoes need sun.", Embedding: []float32{1}, EndIndex: 18}},
		},
		order: []string{"doc-1", "doc-2"},
	}
}

func (m *mockDocumentService) Upload(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	id := fmt.Sprintf("doc-%d", len(m.order)+1)
	doc := &domain.Document{
		ID: id, Filename: raw.Filename, Content: string(raw.Content), Status: domain.StatusProcessed,
		ChunkCount: 1, EmbeddedCount: 1,
	}
	m.documents[id] = doc
	m.order = append(m.order, id)
	return doc, nil
}

func (m *mockDocumentService) IngestFile(ctx context.Context, path string) (*domain.Document, error) {
	if strings.HasSuffix(path, ".png") {
		return nil, &domain.ExtractionError{Filename: filepath.Base(path), MIMEType: "image/png", Err: domain.ErrUnsupportedType}
	}
	return m.Upload(ctx, &domain.RawDocument{Filename: filepath.Base(path), URI: path, Content: []byte("file")})
}

func (m *mockDocumentService) AcquireFromWeb(_ context.Context, query string) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.acquired {
		m.documents[m.acquired[i].ID] = &m.acquired[i]
	}
	return m.acquired, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Document, 0, len(m.order))
	for _, id := range m.order {
		if doc, ok := m.documents[id]; ok {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocumentService) Chunks(_ context.Context, id string) ([]domain.VectorChunk, error) {
	if _, ok := m.documents[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.chunks[id], nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *mockDocumentService) Stats(_ context.Context) (*domain.Stats, error) {
	return &domain.Stats{Documents: 2, Processed: 1, Failed: 1, Chunks: 1, TotalSizeBytes: 3 * 1024 * 1024}, nil
}

func (m *mockDocumentService) Wait() { m.waited = true }

type mockRetrievalService struct {
	results []domain.SearchResult
	err     error
	limit   int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, limit int) ([]domain.SearchResult, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockRetrievalService) RetrieveContext(ctx context.Context, query string, limit int) []domain.SearchResult {
	results, _ := m.Retrieve(ctx, query, limit)
	return results
}

func (m *mockRetrievalService) FormatContext(results []domain.SearchResult) string {
	return services.FormatContext(results)
}

func (m *mockRetrievalService) ExtractSources(results []domain.SearchResult) []domain.SourceCitation {
	return services.ExtractSources(results)
}

type mockChatService struct {
	available bool
	reply     *domain.ChatReply
	err       error
	questions []string
	histories [][]domain.ChatMessage
}

func (m *mockChatService) Ask(_ context.Context, history []domain.ChatMessage, message string) (*domain.ChatReply, error) {
	m.questions = append(m.questions, message)
	m.histories = append(m.histories, history)
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *mockChatService) Available() bool { return m.available }

type testServices struct {
	documents *mockDocumentService
	retrieval *mockRetrievalService
	chat      *mockChatService
}

// setupTestServices installs mock services and resets command flags.
// The returned function restores the previous state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		documents: newMockDocumentService(),
		retrieval: &mockRetrievalService{results: []domain.SearchResult{{
			Document:   domain.Document{ID: "doc-1", Filename: "garden.md"},
			Chunk:      domain.VectorChunk{Content: "Tomatoes need sun."},
			Similarity: 0.876,
		}}},
		chat: &mockChatService{
			available: true,
			reply: &domain.ChatReply{
				Content:  "Give them six hours of sun.",
				Grounded: true,
				Sources:  []domain.SourceCitation{{DocumentID: "doc-1", Filename: "garden.md", Relevance: 88}},
			},
		},
	}
	defaults := domain.DefaultAppSettings()
	SetServices(&Services{
		Documents:   ts.documents,
		Retrieval:   ts.retrieval,
		Chat:        ts.chat,
		AppSettings: &defaults,
	})

	prevBootstrap := bootstrap
	bootstrap = nil
	resetFlags()

	return ts, func() {
		SetServices(nil)
		bootstrap = prevBootstrap
		resetFlags()
	}
}

func resetFlags() {
	documentStatus = ""
	searchLimit = 5
	searchJSON = false
	uploadWait = true
	acquireWait = true
	chatPlain = false
	settingsProvider = ""
	settingsModel = ""
	envFile = ""
}

// execute runs the root command with args and returns its combined output.
func execute(args []string, stdin io.Reader) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

var errBoom = errors.New("boom")
