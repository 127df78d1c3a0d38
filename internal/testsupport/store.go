package testsupport

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"toonvault/internal/config"
	"toonvault/internal/manifest"
)

// MustOpenStore opens a manifest.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *manifest.Store {
	t.Helper()

	store, err := manifest.Open(cfg)
	if err != nil {
		t.Fatalf("manifest.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BackdateEpisode rewinds an episode's updated_at by age through a direct
// connection, standing in for a row left behind by a crashed run.
func BackdateEpisode(t testing.TB, store *manifest.Store, id int64, age time.Duration) {
	t.Helper()

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open manifest db: %v", err)
	}
	defer db.Close()

	stamp := time.Now().UTC().Add(-age).Format(time.RFC3339Nano)
	if _, err := db.Exec(`UPDATE episodes SET updated_at = ? WHERE id = ?`, stamp, id); err != nil {
		t.Fatalf("backdate episode %d: %v", id, err)
	}
}

// NewEpisode creates an episode record for tests using the provided store.
func NewEpisode(t testing.TB, store *manifest.Store, meta manifest.Metadata) *manifest.Episode {
	t.Helper()

	episode, err := store.Create(context.Background(), meta)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return episode
}
