package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func newTestLifecycle(t *testing.T) (*LifecycleManager, *memory.DocumentStore, *memory.VectorStore) {
	t.Helper()
	docs := memory.NewDocumentStore()
	vectors := memory.NewVectorStore()
	return NewLifecycleManager(docs, vectors), docs, vectors
}

func TestLifecycle_Create(t *testing.T) {
	lm, docs, _ := newTestLifecycle(t)
	ctx := context.Background()

	doc, err := lm.Create(ctx, &domain.Document{
		Filename: "notes.txt",
		Content:  "hello",
		FileType: domain.FileTypeText,
		Status:   domain.StatusFailed,
		Source:   domain.SourceUpload,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.StatusProcessing, doc.Status)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Nil(t, doc.ProcessedAt)

	stored, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", stored.Filename)
}

func TestLifecycle_Create_Nil(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	_, err := lm.Create(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLifecycle_MarkProcessed(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	doc, err := lm.Create(ctx, &domain.Document{Filename: "a.txt"})
	require.NoError(t, err)
	require.NoError(t, lm.MarkProcessed(ctx, doc.ID, 3, 2))

	got, err := lm.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, got.Status)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, 2, got.EmbeddedCount)
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, got.Grounded())
}

func TestLifecycle_TerminalStatesAreFinal(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	doc, err := lm.Create(ctx, &domain.Document{Filename: "a.txt"})
	require.NoError(t, err)
	require.NoError(t, lm.MarkFailed(ctx, doc.ID, errors.New("boom")))

	assert.ErrorIs(t, lm.MarkProcessed(ctx, doc.ID, 1, 1), domain.ErrInvalidTransition)
	assert.ErrorIs(t, lm.MarkFailed(ctx, doc.ID, errors.New("again")), domain.ErrInvalidTransition)
	assert.ErrorIs(t, lm.UpdateContent(ctx, doc.ID, "new"), domain.ErrInvalidTransition)

	got, err := lm.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.LastError)
}

func TestLifecycle_MarkFailed_KeepsContent(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	doc, err := lm.Create(ctx, &domain.Document{Filename: "page", Content: webPlaceholder})
	require.NoError(t, err)
	require.NoError(t, lm.MarkFailed(ctx, doc.ID, &domain.ScrapeError{URL: "https://x", Err: errors.New("status 500")}))

	got, err := lm.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, webPlaceholder, got.Content)
	assert.Contains(t, got.LastError, "status 500")
}

func TestLifecycle_UpdateContent(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	doc, err := lm.Create(ctx, &domain.Document{Filename: "page", Content: webPlaceholder})
	require.NoError(t, err)
	require.NoError(t, lm.UpdateContent(ctx, doc.ID, "scraped text"))

	got, err := lm.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "scraped text", got.Content)
	assert.Equal(t, int64(len("scraped text")), got.Size)
}

func TestLifecycle_MissingDocument(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	assert.ErrorIs(t, lm.MarkProcessed(ctx, "missing", 0, 0), domain.ErrNotFound)
	assert.ErrorIs(t, lm.Delete(ctx, "missing"), domain.ErrNotFound)

	exists, err := lm.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLifecycle_DeleteCascadesChunks(t *testing.T) {
	lm, _, vectors := newTestLifecycle(t)
	ctx := context.Background()

	keep, err := lm.Create(ctx, &domain.Document{Filename: "keep.txt"})
	require.NoError(t, err)
	drop, err := lm.Create(ctx, &domain.Document{Filename: "drop.txt"})
	require.NoError(t, err)

	for _, id := range []string{keep.ID, drop.ID, drop.ID} {
		_, err := vectors.Insert(ctx, domain.VectorChunk{DocumentID: id, Content: "x", EndIndex: 1})
		require.NoError(t, err)
	}

	require.NoError(t, lm.Delete(ctx, drop.ID))

	_, err = lm.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	n, err := vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLifecycle_Stats(t *testing.T) {
	lm, _, vectors := newTestLifecycle(t)
	ctx := context.Background()

	a, err := lm.Create(ctx, &domain.Document{Filename: "a", Size: 100})
	require.NoError(t, err)
	b, err := lm.Create(ctx, &domain.Document{Filename: "b", Size: 50})
	require.NoError(t, err)
	_, err = lm.Create(ctx, &domain.Document{Filename: "c", Size: 25})
	require.NoError(t, err)

	require.NoError(t, lm.MarkProcessed(ctx, a.ID, 1, 1))
	require.NoError(t, lm.MarkFailed(ctx, b.ID, errors.New("x")))
	_, err = vectors.Insert(ctx, domain.VectorChunk{DocumentID: a.ID, Content: "x", EndIndex: 1})
	require.NoError(t, err)

	stats, err := lm.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{
		Documents:      3,
		Processed:      1,
		Failed:         1,
		Processing:     1,
		TotalSizeBytes: 175,
		Chunks:         1,
	}, *stats)
}

func TestLifecycle_ConcurrentTerminalWrites(t *testing.T) {
	lm, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	doc, err := lm.Create(ctx, &domain.Document{Filename: "race.txt"})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = lm.MarkProcessed(ctx, doc.ID, 1, 1)
			} else {
				err = lm.MarkFailed(ctx, doc.ID, errors.New("x"))
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}
