// Package sqlindex is a SQLite-backed document index for local runs.
//
// It uses modernc.org/sqlite, a pure Go driver, so the CLI builds without CGO.
// Each Put is a single upsert keyed by (index name, document id), so it is
// visible to the next read on the same database and replaces earlier versions.
package sqlindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Lllllllleong/documentingestion/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	index_name    TEXT NOT NULL,
	document_id   TEXT NOT NULL,
	title         TEXT NOT NULL,
	file_type     TEXT NOT NULL,
	content       TEXT NOT NULL,
	upload_date   TEXT NOT NULL,
	last_modified TEXT NOT NULL,
	PRIMARY KEY (index_name, document_id)
)`

// Index stores document records in a SQLite database.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Index, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// Put inserts or replaces the document stored under id.
func (x *Index) Put(ctx context.Context, index, id string, doc models.DocumentRecord) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO documents (index_name, document_id, title, file_type, content, upload_date, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_name, document_id) DO UPDATE SET
			title = excluded.title,
			file_type = excluded.file_type,
			content = excluded.content,
			upload_date = excluded.upload_date,
			last_modified = excluded.last_modified
	`, index, id, doc.Title, doc.FileType, doc.Content,
		formatTime(doc.UploadDate), formatTime(doc.LastModified))
	if err != nil {
		return fmt.Errorf("saving document %q: %w", id, err)
	}
	return nil
}

// Get returns the document stored under id, or ok=false if there is none.
func (x *Index) Get(ctx context.Context, index, id string) (models.DocumentRecord, bool, error) {
	row := x.db.QueryRowContext(ctx, `
		SELECT document_id, title, file_type, content, upload_date, last_modified
		FROM documents WHERE index_name = ? AND document_id = ?`, index, id)

	var doc models.DocumentRecord
	var uploaded, modified string
	err := row.Scan(&doc.DocumentID, &doc.Title, &doc.FileType, &doc.Content, &uploaded, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DocumentRecord{}, false, nil
	}
	if err != nil {
		return models.DocumentRecord{}, false, fmt.Errorf("loading document %q: %w", id, err)
	}
	if doc.UploadDate, err = parseTime(uploaded); err != nil {
		return models.DocumentRecord{}, false, err
	}
	if doc.LastModified, err = parseTime(modified); err != nil {
		return models.DocumentRecord{}, false, err
	}
	return doc, true, nil
}

// Count returns the number of documents in an index.
func (x *Index) Count(ctx context.Context, index string) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE index_name = ?", index).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
