package compfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fusionkit/internal/host"
	"fusionkit/internal/host/compfile"
	"fusionkit/internal/logging"
)

func TestSaveAndReopenRoundTripsLoaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.comp")
	comp := compfile.New()
	if err := comp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := comp.AddLoader(host.LoaderSpec{Clip: "/r/a.0001.exr", Frames: &host.FrameRange{In: 1, Out: 24}})
	if err != nil {
		t.Fatalf("AddLoader: %v", err)
	}
	second, err := comp.AddLoader(host.LoaderSpec{Clip: "/r/still.jpg"})
	if err != nil {
		t.Fatalf("AddLoader: %v", err)
	}
	if first.Name != "Loader1" || second.Name != "Loader2" {
		t.Fatalf("unexpected loader names %q, %q", first.Name, second.Name)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct tool ids, got %q and %q", first.ID, second.ID)
	}

	reopened, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if diff := cmp.Diff(comp.Tools(), reopened.Tools()); diff != "" {
		t.Fatalf("tools mismatch after reopen (-want +got):\n%s", diff)
	}
	if reopened.Attrs().String(host.AttrFileName) != path {
		t.Fatalf("unexpected file name attr %q", reopened.Attrs().String(host.AttrFileName))
	}
}

func TestLockDefersWritesUntilUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.comp")
	comp := compfile.New()
	if err := comp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := comp.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := comp.SetAttrs(host.Attrs{host.AttrGlobalStart: 1001}); err != nil {
		t.Fatalf("SetAttrs: %v", err)
	}
	onDisk, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v, _ := onDisk.Attrs().Int(host.AttrGlobalStart); v == 1001 {
		t.Fatal("expected write to be deferred while locked")
	}
	if err := comp.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	onDisk, err = compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v, _ := onDisk.Attrs().Int(host.AttrGlobalStart); v != 1001 {
		t.Fatalf("expected flushed global start 1001, got %d", v)
	}
}

func TestLockSeesEditsFromOtherHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.comp")
	if err := compfile.New().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var names []string
	for _, comp := range []*compfile.Comp{first, second} {
		if err := comp.Lock(); err != nil {
			t.Fatalf("Lock: %v", err)
		}
		tool, err := comp.AddLoader(host.LoaderSpec{Clip: "/r/plate.exr"})
		if err != nil {
			t.Fatalf("AddLoader: %v", err)
		}
		if err := comp.Unlock(); err != nil {
			t.Fatalf("Unlock: %v", err)
		}
		names = append(names, tool.Name)
	}
	if diff := cmp.Diff([]string{"Loader1", "Loader2"}, names); diff != "" {
		t.Fatalf("loader names mismatch (-want +got):\n%s", diff)
	}

	onDisk, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(onDisk.Tools()); got != 2 {
		t.Fatalf("tools on disk = %d, want 2", got)
	}
}

func TestUnbatchedEditsMergeAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.comp")
	if err := compfile.New().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := first.AddLoader(host.LoaderSpec{Clip: "/r/a.exr"}); err != nil {
		t.Fatalf("AddLoader: %v", err)
	}
	if err := second.SetAttrs(host.Attrs{host.AttrGlobalEnd: 48}); err != nil {
		t.Fatalf("SetAttrs: %v", err)
	}

	onDisk, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(onDisk.Tools()); got != 1 {
		t.Fatalf("tools on disk = %d, want 1", got)
	}
	if v, _ := onDisk.Attrs().Int(host.AttrGlobalEnd); v != 48 {
		t.Fatalf("global end = %d, want 48", v)
	}
}

func TestWritesKeepFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode.comp")
	comp := compfile.New()
	if err := comp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("new comp mode = %o, want 644", got)
	}

	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := comp.SetAttrs(host.Attrs{host.AttrGlobalStart: 1}); err != nil {
		t.Fatalf("SetAttrs: %v", err)
	}
	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o640 {
		t.Fatalf("comp mode after write = %o, want 640", got)
	}
}

func TestSetAttrsRejectsFileName(t *testing.T) {
	if err := compfile.New().SetAttrs(host.Attrs{host.AttrFileName: "/x.comp"}); err == nil {
		t.Fatal("expected read-only error")
	}
}

func TestSaveUntitledWithoutPath(t *testing.T) {
	if err := compfile.New().Save(""); !errors.Is(err, compfile.ErrUntitled) {
		t.Fatalf("expected ErrUntitled, got %v", err)
	}
}

func TestSessionPersistsCurrentComp(t *testing.T) {
	ctx := context.Background()
	stateDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "persist.comp")

	session := compfile.NewSession(stateDir, "9.0.2", logging.NewNop())
	comp, err := session.CurrentComp(ctx)
	if err != nil {
		t.Fatalf("CurrentComp: %v", err)
	}
	if comp.Attrs().String(host.AttrFileName) != "" {
		t.Fatal("expected untitled comp for fresh session")
	}
	if err := comp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	next := compfile.NewSession(stateDir, "9.0.2", logging.NewNop())
	reloaded, err := next.CurrentComp(ctx)
	if err != nil {
		t.Fatalf("CurrentComp: %v", err)
	}
	if got := reloaded.Attrs().String(host.AttrFileName); got != path {
		t.Fatalf("expected session to remember %q, got %q", path, got)
	}
	if next.Version() != "9.0.2" {
		t.Fatalf("unexpected version %q", next.Version())
	}
}

func TestSessionKeepsUntitledEdits(t *testing.T) {
	ctx := context.Background()
	stateDir := t.TempDir()

	comp, err := compfile.NewSession(stateDir, "", nil).CurrentComp(ctx)
	if err != nil {
		t.Fatalf("CurrentComp: %v", err)
	}
	if _, err := comp.AddLoader(host.LoaderSpec{Clip: "/r/a.exr"}); err != nil {
		t.Fatalf("AddLoader: %v", err)
	}
	if err := comp.SetAttrs(host.Attrs{host.AttrGlobalStart: 1001}); err != nil {
		t.Fatalf("SetAttrs: %v", err)
	}

	next := compfile.NewSession(stateDir, "", nil)
	reloaded, err := next.CurrentComp(ctx)
	if err != nil {
		t.Fatalf("CurrentComp: %v", err)
	}
	if got := reloaded.Attrs().String(host.AttrFileName); got != "" {
		t.Fatalf("expected untitled comp, got %q", got)
	}
	if got := len(reloaded.Tools()); got != 1 {
		t.Fatalf("tools = %d, want 1", got)
	}
	if v, _ := reloaded.Attrs().Int(host.AttrGlobalStart); v != 1001 {
		t.Fatalf("global start = %d, want 1001", v)
	}

	if err := next.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	fresh, err := compfile.NewSession(stateDir, "", nil).CurrentComp(ctx)
	if err != nil {
		t.Fatalf("CurrentComp: %v", err)
	}
	if got := len(fresh.Tools()); got != 0 {
		t.Fatalf("tools after reset = %d, want 0", got)
	}
}

func TestSessionSaveClearsUntitledScratch(t *testing.T) {
	ctx := context.Background()
	stateDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "saved.comp")

	session := compfile.NewSession(stateDir, "", nil)
	comp, err := session.CurrentComp(ctx)
	if err != nil {
		t.Fatalf("CurrentComp: %v", err)
	}
	if _, err := comp.AddLoader(host.LoaderSpec{Clip: "/r/a.exr"}); err != nil {
		t.Fatalf("AddLoader: %v", err)
	}
	if err := comp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, "untitled.comp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected scratch file to be removed, stat err = %v", err)
	}

	saved, err := compfile.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(saved.Tools()); got != 1 {
		t.Fatalf("saved tools = %d, want 1", got)
	}
}

func TestSessionLoadCompMissing(t *testing.T) {
	session := compfile.NewSession(t.TempDir(), "", nil)
	err := session.LoadComp(context.Background(), filepath.Join(t.TempDir(), "absent.comp"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestWatchReportsModification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.comp")
	comp := compfile.New()
	if err := comp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan compfile.Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- compfile.Watch(ctx, path, func(ev compfile.Event) { events <- ev })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := comp.SetAttrs(host.Attrs{host.AttrGlobalEnd: 48}); err != nil {
		t.Fatalf("SetAttrs: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Path != path {
			t.Fatalf("unexpected event path %q", ev.Path)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch event")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
}
