// Package ledger records indexed documents in an append-only SQLite
// table. The ledger is a side channel for listing what the knowledge
// base contains; retrieval never reads it.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"edurag/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	chunk_count INTEGER NOT NULL,
	pages INTEGER NOT NULL DEFAULT 0,
	added_at DATETIME NOT NULL
)`

// SQLite is a Ledger backed by a SQLite database file. SQLite serializes
// concurrent appends, so no entry is ever lost to a racing writer.
type SQLite struct {
	db *sqlx.DB
}

type row struct {
	SourceID   string    `db:"source_id"`
	Filename   string    `db:"filename"`
	ChunkCount int       `db:"chunk_count"`
	Pages      int       `db:"pages"`
	AddedAt    time.Time `db:"added_at"`
}

// Open connects to the ledger database at path, creating the schema if
// needed. Use ":memory:" for an ephemeral ledger.
func Open(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append records one indexed document.
func (l *SQLite) Append(ctx context.Context, entry domain.LedgerEntry) error {
	addedAt := entry.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO documents (source_id, filename, chunk_count, pages, added_at) VALUES (?, ?, ?, ?, ?)`,
		entry.SourceID, entry.Filename, entry.ChunkCount, entry.Pages, addedAt)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// List returns all entries in insertion order.
func (l *SQLite) List(ctx context.Context) ([]domain.LedgerEntry, error) {
	var rows []row
	err := l.db.SelectContext(ctx, &rows,
		`SELECT source_id, filename, chunk_count, pages, added_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	entries := make([]domain.LedgerEntry, len(rows))
	for i, r := range rows {
		entries[i] = domain.LedgerEntry{
			SourceID:   r.SourceID,
			Filename:   r.Filename,
			ChunkCount: r.ChunkCount,
			Pages:      r.Pages,
			AddedAt:    r.AddedAt,
		}
	}
	return entries, nil
}

// Close releases the database handle.
func (l *SQLite) Close() error { return l.db.Close() }
