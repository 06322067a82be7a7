// Package postgres provides a PostgreSQL implementation of the storage ports.
//
// The layout follows the relational schema of the hosted deployment:
// documents and vector_chunks tables with UUID keys and JSONB embedding
// columns. Similarity is computed in Go over a full scan, like the other
// backends, so no database extension is required.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// uniqueViolation is the SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Store is a Postgres-backed storage that provides access to the document
// and vector store interfaces through wrapper types.
type Store struct {
	db *sql.DB
}

// NewStore connects to Postgres and ensures the tables exist.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewStoreFromDB(db)
}

// NewStoreFromDB reuses an existing *sql.DB.
func NewStoreFromDB(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	s := &Store{db: db}
	if err := s.ensureTables(context.Background()); err != nil {
		return nil, fmt.Errorf("ensuring tables: %w", err)
	}
	return s, nil
}

func (s *Store) ensureTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS documents (
  id             uuid PRIMARY KEY,
  filename       text NOT NULL,
  content        text NOT NULL DEFAULT '',
  file_type      text NOT NULL,
  size           bigint NOT NULL DEFAULT 0,
  status         text NOT NULL DEFAULT 'processing',
  source         text NOT NULL DEFAULT 'upload',
  url            text NOT NULL DEFAULT '',
  created_at     timestamptz NOT NULL DEFAULT now(),
  processed_at   timestamptz,
  last_error     text NOT NULL DEFAULT '',
  chunk_count    integer NOT NULL DEFAULT 0,
  embedded_count integer NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS vector_chunks (
  seq         bigserial,
  id          uuid PRIMARY KEY,
  document_id uuid NOT NULL,
  content     text NOT NULL,
  embedding   jsonb NOT NULL DEFAULT '[]',
  start_index integer NOT NULL,
  end_index   integer NOT NULL,
  position    integer NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS vector_chunks_document_idx ON vector_chunks (document_id);
CREATE INDEX IF NOT EXISTS vector_chunks_seq_idx ON vector_chunks (seq);
`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{db: s.db}
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{db: s.db}
}

// ==================== Document Store ====================

type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, filename, content, file_type, size, status, source, url,
  created_at, processed_at, last_error, chunk_count, embedded_count`

func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	var processedAt sql.NullTime
	if doc.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *doc.ProcessedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  filename=EXCLUDED.filename,
  content=EXCLUDED.content,
  file_type=EXCLUDED.file_type,
  size=EXCLUDED.size,
  status=EXCLUDED.status,
  source=EXCLUDED.source,
  url=EXCLUDED.url,
  processed_at=EXCLUDED.processed_at,
  last_error=EXCLUDED.last_error,
  chunk_count=EXCLUDED.chunk_count,
  embedded_count=EXCLUDED.embedded_count`,
		doc.ID, doc.Filename, doc.Content, string(doc.FileType), doc.Size,
		string(doc.Status), string(doc.Source), doc.URL, doc.CreatedAt.UTC(), processedAt,
		doc.LastError, doc.ChunkCount, doc.EmbeddedCount)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// ==================== Vector Store ====================

type vectorStore struct {
	db *sql.DB
}

var _ driven.VectorStore = (*vectorStore)(nil)

const chunkColumns = `id, document_id, content, embedding, start_index, end_index, position`

func (s *vectorStore) Insert(ctx context.Context, chunk domain.VectorChunk) (domain.VectorChunk, error) {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	emb, err := encodeEmbedding(chunk.Embedding)
	if err != nil {
		return domain.VectorChunk{}, err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO vector_chunks (`+chunkColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		chunk.ID, chunk.DocumentID, chunk.Content, emb, chunk.StartIndex, chunk.EndIndex, chunk.Position)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.VectorChunk{}, fmt.Errorf("chunk %s: %w", chunk.ID, domain.ErrAlreadyExists)
		}
		return domain.VectorChunk{}, fmt.Errorf("inserting chunk: %w", err)
	}
	return chunk, nil
}

func (s *vectorStore) Get(ctx context.Context, id string) (*domain.VectorChunk, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM vector_chunks WHERE id = $1`, id)
	return scanChunk(row)
}

func (s *vectorStore) Search(ctx context.Context, query []float32, limit int) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+chunkColumns+` FROM vector_chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:      *chunk,
			Similarity: domain.CosineSimilarity(query, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return domain.RankScored(scored, limit), nil
}

func (s *vectorStore) ListByDocument(ctx context.Context, documentID string) ([]domain.VectorChunk, error) {
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM vector_chunks WHERE document_id = $1 ORDER BY position, seq`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.VectorChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	return chunks, rows.Err()
}

func (s *vectorStore) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if _, err := uuid.Parse(documentID); err != nil {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM vector_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vector_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var fileType, status, source string
	var processedAt pq.NullTime

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Content, &fileType, &doc.Size,
		&status, &source, &doc.URL, &doc.CreatedAt, &processedAt,
		&doc.LastError, &doc.ChunkCount, &doc.EmbeddedCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.FileType = domain.FileType(fileType)
	doc.Status = domain.DocumentStatus(status)
	doc.Source = domain.DocumentSource(source)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func scanChunk(row scanner) (*domain.VectorChunk, error) {
	var chunk domain.VectorChunk
	var emb []byte
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &emb,
		&chunk.StartIndex, &chunk.EndIndex, &chunk.Position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	vec, err := decodeEmbedding(emb)
	if err != nil {
		return nil, err
	}
	chunk.Embedding = vec
	return &chunk, nil
}

// encodeEmbedding renders a vector as a JSON array; nil becomes [].
func encodeEmbedding(v []float32) ([]byte, error) {
	if v == nil {
		v = []float32{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding embedding: %w", err)
	}
	return b, nil
}

// decodeEmbedding parses a JSON array; an empty array decodes to nil.
func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decoding embedding: %w", err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}
