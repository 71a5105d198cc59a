// Package db wraps the SQLite database backing the company catalog, the
// announcement index, and the conversation transcript.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with corpuschat-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS companies (
    ticker TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    industry TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS announcements (
    key TEXT PRIMARY KEY,
    ticker TEXT NOT NULL,
    published_at DATETIME NOT NULL,
    types TEXT NOT NULL DEFAULT '',
    price_sensitive INTEGER NOT NULL DEFAULT 0,
    markdown INTEGER NOT NULL DEFAULT 0,
    url TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_announcements_ticker ON announcements(ticker);
CREATE INDEX IF NOT EXISTS idx_announcements_date ON announcements(published_at);

CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    user_email TEXT NOT NULL DEFAULT '',
    vector_store_id TEXT NOT NULL,
    num_of_docs INTEGER NOT NULL DEFAULT 0,
    document_keys TEXT NOT NULL DEFAULT '[]',
    ticker TEXT NOT NULL,
    announcement_types TEXT NOT NULL DEFAULT '[]',
    price_sensitive INTEGER NOT NULL DEFAULT 0,
    date_from DATETIME,
    date_to DATETIME,
    date_range INTEGER NOT NULL DEFAULT 0,
    message_text TEXT NOT NULL,
    assistant_response TEXT NOT NULL,
    message_timestamp DATETIME NOT NULL DEFAULT (datetime('now')),
    chat_model TEXT NOT NULL DEFAULT '',
    chat_mode TEXT NOT NULL DEFAULT 'generate',
    tokens_used INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);
CREATE INDEX IF NOT EXISTS idx_conversations_ticker ON conversations(ticker);
`
