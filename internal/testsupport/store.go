package testsupport

import (
	"context"
	"testing"

	"skipintro/internal/config"
	"skipintro/internal/episodes"
)

// MustOpenStore opens an episodes.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *episodes.Store {
	t.Helper()

	store, err := episodes.Open(cfg)
	if err != nil {
		t.Fatalf("episodes.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustCreateShow creates (or finds) a show and returns its id.
func MustCreateShow(t testing.TB, store *episodes.Store, title string) int64 {
	t.Helper()

	id, err := store.GetOrCreateShow(context.Background(), title)
	if err != nil {
		t.Fatalf("store.GetOrCreateShow: %v", err)
	}
	return id
}
