package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Index is a derived sqlite index over document summaries. It is a pure
// cache: the markdown files stay the source of truth and the index can
// be rebuilt from the store at any time.
type Index struct {
	db *sql.DB
}

// sqliteBusyTimeout is the time SQLite waits when the database is
// locked before returning SQLITE_BUSY.
const sqliteBusyTimeout = 10000 // milliseconds

// OpenIndex opens (creating if needed) the index database at path.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("open index: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping index: %w", err)
	}

	err = applyPragmas(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	err = createSchema(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Index{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	statements := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeout),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, stmt := range statements {
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	return nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id       TEXT PRIMARY KEY,
			title    TEXT NOT NULL,
			author   TEXT NOT NULL,
			created  TEXT NOT NULL,
			revision INTEGER NOT NULL,
			path     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_author ON documents(author);
	`)
	if err != nil {
		return fmt.Errorf("create index schema: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Put inserts or replaces one summary.
func (ix *Index) Put(ctx context.Context, s Summary) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, title, author, created, revision, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Title, s.Author, s.Created.UTC().Format(time.RFC3339), s.Revision, s.Path)
	if err != nil {
		return fmt.Errorf("index put %s: %w", s.ID, err)
	}

	return nil
}

// Delete removes one summary by ID. Deleting an absent ID is not an
// error.
func (ix *Index) Delete(ctx context.Context, id string) error {
	_, err := ix.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("index delete %s: %w", id, err)
	}

	return nil
}

// All returns every indexed summary ordered by ID.
func (ix *Index) All(ctx context.Context) ([]Summary, error) {
	return ix.query(ctx, "SELECT id, title, author, created, revision, path FROM documents ORDER BY id")
}

// ByAuthor returns the summaries for one author ordered by ID.
func (ix *Index) ByAuthor(ctx context.Context, author string) ([]Summary, error) {
	return ix.query(ctx,
		"SELECT id, title, author, created, revision, path FROM documents WHERE author = ? ORDER BY id", author)
}

func (ix *Index) query(ctx context.Context, stmt string, args ...any) ([]Summary, error) {
	rows, err := ix.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []Summary

	for rows.Next() {
		var s Summary

		var created string

		scanErr := rows.Scan(&s.ID, &s.Title, &s.Author, &created, &s.Revision, &s.Path)
		if scanErr != nil {
			return nil, fmt.Errorf("index scan: %w", scanErr)
		}

		s.Created, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("index scan %s: created %q: %w", s.ID, created, err)
		}

		out = append(out, s)
	}

	rowsErr := rows.Err()
	if rowsErr != nil {
		return nil, fmt.Errorf("index query: %w", rowsErr)
	}

	return out, nil
}

// Rebuild repopulates the index from the store's current contents.
// Documents that fail to parse are skipped; the caller sees them via
// Store.List diagnostics.
func (ix *Index) Rebuild(ctx context.Context, s *Store) error {
	results, err := s.List(nil)
	if err != nil {
		return err
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index rebuild: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("index rebuild: %w", err)
	}

	for _, result := range results {
		if result.Err != nil {
			continue
		}

		sum := result.Summary

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO documents (id, title, author, created, revision, path)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sum.ID, sum.Title, sum.Author, sum.Created.UTC().Format(time.RFC3339), sum.Revision, sum.Path)
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("index rebuild %s: %w", sum.ID, err)
		}
	}

	commitErr := tx.Commit()
	if commitErr != nil {
		return fmt.Errorf("index rebuild: %w", commitErr)
	}

	return nil
}
