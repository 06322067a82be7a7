// Package sqlite provides a durable SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements both store interfaces
// through a single database connection:
//
//   - DocumentStore: Document persistence, including status and chunk counts
//   - VectorStore: Chunk and embedding persistence with linear cosine search
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Embeddings are stored as little-endian float32 blobs. Similarity is computed
// in Go over a full scan ordered by insertion sequence.
//
// # Data Location
//
// By default, the database is stored at ~/.ragdesk/data/knowledge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
