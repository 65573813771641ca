// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/nordvik/grimoire/internal/index"
	"github.com/nordvik/grimoire/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "grimoire-test-*.db")
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

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Logger returns a logger that drops all records, for quiet test output.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SeedVault writes the given notes into the store and indexes each one.
// Keys are vault-relative paths, values are raw markdown.
func SeedVault(t *testing.T, store storage.Provider, db *index.DB, notes map[string]string) {
	t.Helper()
	for path, content := range notes {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatalf("seed write %s: %v", path, err)
		}
	}
	if err := index.Sync(db, store, Logger()); err != nil {
		t.Fatalf("seed sync: %v", err)
	}
}
