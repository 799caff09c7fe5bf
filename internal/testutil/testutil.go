// Package testutil provides shared test helpers for setting up posts
// directories and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/blogula/internal/index"
	"github.com/starford/blogula/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "blogula-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WritePosts creates a temporary posts directory holding files (slash
// separated relative path to content) and returns it with its provider.
func WritePosts(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return dir, store
}
