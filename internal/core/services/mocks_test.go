package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
// Texts listed in vectors get that vector, failures get an error and
// everything else gets {1, 0}.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	failures map[string]error
	calls    []string
	delay    time.Duration
	onEmbed  func(text string)

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors:  make(map[string][]float32),
		failures: make(map[string]error),
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		peak := m.maxInFlight.Load()
		if n <= peak || m.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, text)
	hook := m.onEmbed
	vec, hasVec := m.vectors[text]
	err := m.failures[text]
	m.mu.Unlock()

	if hook != nil {
		hook(text)
	}
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if hasVec {
		return vec, nil
	}
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	answer   string
	err      error
	messages []domain.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("no prompt " + name)
}

// mockSearcher implements driven.WebSearcher for testing.
type mockSearcher struct {
	results []domain.WebResult
	err     error
	limit   int
}

func (m *mockSearcher) Search(_ context.Context, _ string, limit int) ([]domain.WebResult, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockScraper implements driven.Scraper for testing.
type mockScraper struct {
	pages map[string]string
}

func (m *mockScraper) Scrape(_ context.Context, url string) (string, error) {
	if text, ok := m.pages[url]; ok {
		return text, nil
	}
	return "", &domain.ScrapeError{URL: url, Err: errors.New("status 404")}
}

// recordingVectorStore wraps a VectorStore and records search limits.
type recordingVectorStore struct {
	driven.VectorStore
	searchLimit int
	searchErr   error
}

func (r *recordingVectorStore) Search(ctx context.Context, query []float32, limit int) ([]domain.ScoredChunk, error) {
	r.searchLimit = limit
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.VectorStore.Search(ctx, query, limit)
}
