package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestEmbeddingEncoding(t *testing.T) {
	b, err := encodeEmbedding([]float32{0.5, -1, 2})
	require.NoError(t, err)
	assert.JSONEq(t, `[0.5,-1,2]`, string(b))

	v, err := decodeEmbedding(b)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2}, v)

	b, err = encodeEmbedding(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	v, err = decodeEmbedding(b)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = decodeEmbedding([]byte("{"))
	assert.Error(t, err)
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// setupStore connects to the database named by RAGDESK_TEST_POSTGRES_DSN.
func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("RAGDESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RAGDESK_TEST_POSTGRES_DSN not set")
	}
	store, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_DocumentAndChunks(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()
	vectors := store.VectorStore()

	docID := uuid.New().String()
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{
		ID:        docID,
		Filename:  "pg.txt",
		FileType:  domain.FileTypeText,
		Status:    domain.StatusProcessing,
		Source:    domain.SourceUpload,
		CreatedAt: time.Now(),
	}))
	t.Cleanup(func() {
		_, _ = vectors.DeleteByDocument(ctx, docID)
		_ = docs.DeleteDocument(ctx, docID)
	})

	stored, err := vectors.Insert(ctx, domain.VectorChunk{
		DocumentID: docID, Content: "x", Embedding: []float32{1, 0}, EndIndex: 1,
	})
	require.NoError(t, err)

	_, err = vectors.Insert(ctx, stored)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := vectors.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Embedding)

	hits, err := vectors.Search(ctx, []float32{1, 0}, 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	doc, err := docs.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "pg.txt", doc.Filename)

	_, err = docs.GetDocument(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
