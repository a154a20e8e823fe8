// Package migrations embeds SQL migration files for the SQLite store.
//
// Files are named NNN_description.up.sql and NNN_description.down.sql.
// Applied versions are recorded in the schema_migrations table.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
