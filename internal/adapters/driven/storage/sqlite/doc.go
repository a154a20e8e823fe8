// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements the store interfaces
// through a single database connection:
//
//   - DocumentStore: document and chunk persistence, including embeddings
//   - ChatStore: the append-only chat log
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files,
// and applied versions are recorded in schema_migrations.
//
// # Vectors
//
// Embeddings are stored as BLOBs in a versioned encoding; see EncodeVector.
//
// # Data Location
//
// By default, the database is stored at ~/.ragnote/data/ragnote.db
//
// # Thread Safety
//
// All operations are thread-safe. Writes run in immediate transactions and
// reads of the whole vector set run in a single read transaction, so they
// see a consistent snapshot under WAL.
package sqlite
