package testsupport

import (
	"context"
	"testing"

	"fusionkit/internal/config"
	"fusionkit/internal/publish"
)

// MustOpenStore opens a publish.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *publish.Store {
	t.Helper()

	store, err := publish.Open(cfg)
	if err != nil {
		t.Fatalf("publish.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddPublish records a publish of path with the given type.
func AddPublish(t testing.TB, store *publish.Store, path, publishedFileType string) *publish.File {
	t.Helper()

	file, err := store.Add(context.Background(), publish.File{Path: path, PublishedFileType: publishedFileType, VersionNumber: 1})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return file
}
