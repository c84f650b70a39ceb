package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path and any missing parents with placeholder contents.
func WriteFile(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("frame"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFrames creates one file per frame by formatting pattern, a printf
// template such as "shot.%04d.exr", inside dir. It returns the created paths.
func WriteFrames(t testing.TB, dir, pattern string, frames ...int) []string {
	t.Helper()

	paths := make([]string, 0, len(frames))
	for _, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf(pattern, frame))
		WriteFile(t, path)
		paths = append(paths, path)
	}
	return paths
}
