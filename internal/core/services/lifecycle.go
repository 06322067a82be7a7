package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// LifecycleManager owns document status changes. Every read-modify-write
// of a document goes through it, serialised by a mutex, so concurrent
// pipeline runs and deletes never lose an update.
type LifecycleManager struct {
	mu      sync.Mutex
	docs    driven.DocumentStore
	vectors driven.VectorStore
	now     func() time.Time
}

// NewLifecycleManager creates a lifecycle manager over the given stores.
func NewLifecycleManager(docs driven.DocumentStore, vectors driven.VectorStore) *LifecycleManager {
	return &LifecycleManager{
		docs:    docs,
		vectors: vectors,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new document in the processing state. ID and
// CreatedAt are assigned here.
func (m *LifecycleManager) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	created := *doc
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.Status = domain.StatusProcessing
	created.CreatedAt = m.now()
	created.ProcessedAt = nil
	created.LastError = ""
	created.ChunkCount = 0
	created.EmbeddedCount = 0

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.docs.SaveDocument(ctx, &created); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return &created, nil
}

// MarkProcessed finishes a document successfully.
func (m *LifecycleManager) MarkProcessed(ctx context.Context, id string, chunkCount, embeddedCount int) error {
	return m.update(ctx, id, func(doc *domain.Document) error {
		status, err := doc.Status.Transition(domain.StatusProcessed)
		if err != nil {
			return err
		}
		now := m.now()
		doc.Status = status
		doc.ProcessedAt = &now
		doc.ChunkCount = chunkCount
		doc.EmbeddedCount = embeddedCount
		return nil
	})
}

// MarkFailed finishes a document with a diagnostic. Content is left untouched.
func (m *LifecycleManager) MarkFailed(ctx context.Context, id string, cause error) error {
	return m.update(ctx, id, func(doc *domain.Document) error {
		status, err := doc.Status.Transition(domain.StatusFailed)
		if err != nil {
			return err
		}
		now := m.now()
		doc.Status = status
		doc.ProcessedAt = &now
		if cause != nil {
			doc.LastError = cause.Error()
		}
		return nil
	})
}

// UpdateContent replaces the text of a document that is still processing,
// e.g. once a web page has been scraped.
func (m *LifecycleManager) UpdateContent(ctx context.Context, id, content string) error {
	return m.update(ctx, id, func(doc *domain.Document) error {
		if doc.Status != domain.StatusProcessing {
			return fmt.Errorf("%w: content of a %s document is frozen", domain.ErrInvalidTransition, doc.Status)
		}
		doc.Content = content
		doc.Size = int64(len(content))
		return nil
	})
}

func (m *LifecycleManager) update(ctx context.Context, id string, mutate func(*domain.Document) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.docs.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("get document %s: %w", id, err)
	}
	if err := mutate(doc); err != nil {
		return err
	}
	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document %s: %w", id, err)
	}
	return nil
}

// Get retrieves a document by ID.
func (m *LifecycleManager) Get(ctx context.Context, id string) (*domain.Document, error) {
	return m.docs.GetDocument(ctx, id)
}

// Exists reports whether a document is still registered.
func (m *LifecycleManager) Exists(ctx context.Context, id string) (bool, error) {
	_, err := m.docs.GetDocument(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns all documents, newest first.
func (m *LifecycleManager) List(ctx context.Context) ([]domain.Document, error) {
	return m.docs.ListDocuments(ctx)
}

// Delete removes a document and then its chunks.
func (m *LifecycleManager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	err := m.docs.DeleteDocument(ctx, id)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	if _, err := m.vectors.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", id, err)
	}
	return nil
}

// Stats summarises the knowledge base.
func (m *LifecycleManager) Stats(ctx context.Context) (*domain.Stats, error) {
	docs, err := m.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	chunks, err := m.vectors.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	stats := &domain.Stats{Documents: len(docs), Chunks: chunks}
	for _, doc := range docs {
		stats.TotalSizeBytes += doc.Size
		switch doc.Status {
		case domain.StatusProcessed:
			stats.Processed++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusProcessing:
			stats.Processing++
		}
	}
	return stats, nil
}
