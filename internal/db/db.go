package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// schema holds the client's local tables: the durable session key-value store
// and the offline catalog cache. A single-file schema needs no versioned
// migrations.
const schema = `
CREATE TABLE IF NOT EXISTS session_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_cache (
	kind       TEXT NOT NULL,
	id         INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);
`

// Open connects to the local sqlite database and bootstraps the schema.
func Open(path string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	// modernc sqlite allows one writer at a time
	database.SetMaxOpenConns(1)

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return database, nil
}
