package testsupport

import (
	"testing"

	"moviebox/internal/config"
	"moviebox/internal/moviecard"
)

// MustOpenStore opens the SQLite card store for cfg and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *moviecard.SQLiteStore {
	t.Helper()

	store, err := moviecard.Open(cfg)
	if err != nil {
		t.Fatalf("moviecard.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
