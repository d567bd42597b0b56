// Package ledger records published documents in a local SQLite database so
// later runs can find, update, and list them without querying the remote
// service.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/varga/larkpub/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS publications (
	path         TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	document_id  TEXT NOT NULL,
	node_token   TEXT NOT NULL DEFAULT '',
	target       TEXT NOT NULL DEFAULT 'space',
	checksum     TEXT NOT NULL DEFAULT '',
	published_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Publication is one ledger row: a source file that has been published.
type Publication struct {
	Path        string
	Title       string
	DocumentID  string
	NodeToken   string
	Target      string
	Checksum    string
	PublishedAt time.Time
}

// Store defines the ledger operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	Record(p Publication) error
	Get(path string) (*Publication, error)
	List() ([]Publication, error)
	Delete(path string) error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record inserts or replaces the publication for a source path.
func (db *DB) Record(p Publication) error {
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO publications (path, title, document_id, node_token, target, checksum, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			document_id  = excluded.document_id,
			node_token   = excluded.node_token,
			target       = excluded.target,
			checksum     = excluded.checksum,
			published_at = excluded.published_at
	`, p.Path, p.Title, p.DocumentID, p.NodeToken, p.Target, p.Checksum, p.PublishedAt)
	if err != nil {
		return fmt.Errorf("ledger: record: %w", err)
	}
	return nil
}

// Get returns the publication for a source path, or apperr.ErrNotFound.
func (db *DB) Get(path string) (*Publication, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, document_id, node_token, target, checksum, published_at
		FROM publications WHERE path = ?
	`, path)

	var p Publication
	err := row.Scan(&p.Path, &p.Title, &p.DocumentID, &p.NodeToken, &p.Target, &p.Checksum, &p.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	return &p, nil
}

// List returns all publications, most recent first.
func (db *DB) List() ([]Publication, error) {
	rows, err := db.conn.Query(`
		SELECT path, title, document_id, node_token, target, checksum, published_at
		FROM publications ORDER BY published_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.Path, &p.Title, &p.DocumentID, &p.NodeToken, &p.Target, &p.Checksum, &p.PublishedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the row for a source path. Deleting a missing row is not
// an error.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM publications WHERE path = ?`, path); err != nil {
		return fmt.Errorf("ledger: delete: %w", err)
	}
	return nil
}
