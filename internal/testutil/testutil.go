// Package testutil provides shared test helpers for temporary ledgers and markdown sources.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/varga/larkpub/internal/ledger"
)

// TestLedger creates a temporary SQLite publication ledger that is automatically cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "larkpub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestMarkdown writes content to a markdown file in a temp directory and returns its path.
func TestMarkdown(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
