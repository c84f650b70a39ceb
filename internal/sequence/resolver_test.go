package sequence_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fusionkit/internal/sequence"
	"fusionkit/internal/templates"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func mustResolve(t *testing.T, r *sequence.Resolver, path string) (sequence.Range, bool) {
	t.Helper()
	rng, ok, err := r.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%q) returned error: %v", path, err)
	}
	return rng, ok
}

func TestResolvePatternFindsFullRange(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 24; i++ {
		touch(t, dir, filepathFrame("render", i, 4, ".exr"))
	}

	r := sequence.NewResolver(nil)
	for _, frame := range []int{1, 12, 24} {
		rng, ok := mustResolve(t, r, filepath.Join(dir, filepathFrame("render", frame, 4, ".exr")))
		if !ok {
			t.Fatalf("expected sequence for frame %d", frame)
		}
		if rng != (sequence.Range{Min: 1, Max: 24}) {
			t.Fatalf("frame %d: got %v, want 1-24", frame, rng)
		}
	}
}

func TestResolveNoFrameToken(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "still.jpg")

	if rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, "still.jpg")); ok {
		t.Fatalf("expected no sequence, got %v", rng)
	}
}

func TestResolveComparesNumerically(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "shot_9.exr", "shot_10.exr")

	rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, "shot_10.exr"))
	if !ok || rng != (sequence.Range{Min: 9, Max: 10}) {
		t.Fatalf("got %v ok=%v, want 9-10", rng, ok)
	}
}

func TestResolveMixedWidthSiblings(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plate_1.dpx", "plate_002.dpx")

	rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, "plate_1.dpx"))
	if !ok || rng != (sequence.Range{Min: 1, Max: 2}) {
		t.Fatalf("got %v ok=%v, want 1-2", rng, ok)
	}
}

func TestResolvePlaceholderUsesDiskFrames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "comp.0100.exr", "comp.0101.exr", "comp.0150.exr")

	r := sequence.NewResolver(nil)
	for _, name := range []string{"comp.####.exr", "comp.%04d.exr"} {
		rng, ok := mustResolve(t, r, filepath.Join(dir, name))
		if !ok || rng != (sequence.Range{Min: 100, Max: 150}) {
			t.Fatalf("%s: got %v ok=%v, want 100-150", name, rng, ok)
		}
	}
}

func TestResolvePlaceholderWithoutFramesOnDisk(t *testing.T) {
	dir := t.TempDir()
	if rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, "empty.####.exr")); ok {
		t.Fatalf("expected no sequence, got %v", rng)
	}
}

func TestResolveSkipsSiblingsWithoutNumericToken(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "bg.0001.png", "bg.0002.png", "bg.final.png", "bg.####.png")

	rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, "bg.0001.png"))
	if !ok || rng != (sequence.Range{Min: 1, Max: 2}) {
		t.Fatalf("got %v ok=%v, want 1-2", rng, ok)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.0003.exr", "a.0007.exr")
	r := sequence.NewResolver(nil)
	path := filepath.Join(dir, "a.0003.exr")

	first, ok1 := mustResolve(t, r, path)
	second, ok2 := mustResolve(t, r, path)
	if first != second || ok1 != ok2 {
		t.Fatalf("expected identical results, got %v/%v and %v/%v", first, ok1, second, ok2)
	}
}

func TestResolvePropagatesGlobErrors(t *testing.T) {
	boom := errors.New("permission denied")
	r := sequence.NewResolver(nil, sequence.WithGlob(func(string) ([]string, error) {
		return nil, boom
	}))

	if _, _, err := r.Resolve("/mnt/render.0001.exr"); !errors.Is(err, boom) {
		t.Fatalf("expected glob error to propagate, got %v", err)
	}
}

func TestResolveMalformedGlobIsError(t *testing.T) {
	if _, _, err := sequence.NewResolver(nil).Resolve("/tmp/[broken/render.0001.exr"); err == nil {
		t.Fatal("expected bad pattern error")
	}
}

// fakeRegistry serves a single template and a fixed list of sibling paths.
// With matchAll set it hands out the template for any path.
type fakeRegistry struct {
	tmpl     *templates.Template
	siblings []string
	matchAll bool
	gotSkip  []string
	calls    int
}

func (f *fakeRegistry) TemplateFromPath(path string) (*templates.Template, bool) {
	if f.tmpl == nil || (!f.matchAll && !f.tmpl.Validate(path)) {
		return nil, false
	}
	return f.tmpl, true
}

func (f *fakeRegistry) PathsFromTemplate(_ *templates.Template, _ templates.Fields, skip []string) ([]string, error) {
	f.calls++
	f.gotSkip = skip
	return f.siblings, nil
}

func renderTemplate(t *testing.T, definition string) *templates.Template {
	t.Helper()
	tmpl, err := templates.New("render", definition, map[string]templates.Key{
		"Shot": {Type: templates.KeyString},
		"SEQ":  {Type: templates.KeySequence, FormatSpec: "04"},
		"eye":  {Type: templates.KeyString},
	})
	if err != nil {
		t.Fatalf("templates.New: %v", err)
	}
	return tmpl
}

func TestResolveTemplateTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "sh010.0001.exr", "sh010.0002.exr")

	reg := &fakeRegistry{
		tmpl: renderTemplate(t, filepath.ToSlash(dir)+"/{Shot}.{SEQ}.exr"),
		siblings: []string{
			filepath.Join(dir, "sh010.0010.exr"),
			filepath.Join(dir, "sh010.0020.exr"),
			filepath.Join(dir, "unrelated.txt"),
		},
	}

	rng, ok := mustResolve(t, sequence.NewResolver(reg), filepath.Join(dir, "sh010.0001.exr"))
	if !ok || rng != (sequence.Range{Min: 10, Max: 20}) {
		t.Fatalf("got %v ok=%v, want template range 10-20", rng, ok)
	}
	if len(reg.gotSkip) != 2 || reg.gotSkip[0] != sequence.SeqKey || reg.gotSkip[1] != sequence.EyeKey {
		t.Fatalf("unexpected skip keys %v", reg.gotSkip)
	}
}

func TestResolveTemplateWithoutSeqField(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plate_0001.exr", "plate_0002.exr")

	reg := &fakeRegistry{tmpl: renderTemplate(t, filepath.ToSlash(dir)+"/{Shot}.exr")}

	if rng, ok := mustResolve(t, sequence.NewResolver(reg), filepath.Join(dir, "plate_0001.exr")); ok {
		t.Fatalf("expected no sequence for template without SEQ, got %v", rng)
	}
	if reg.calls != 0 {
		t.Fatal("PathsFromTemplate must not be called without a SEQ field")
	}
}

func TestResolveTemplateNoSiblings(t *testing.T) {
	dir := t.TempDir()
	reg := &fakeRegistry{tmpl: renderTemplate(t, filepath.ToSlash(dir)+"/{Shot}.{SEQ}.exr")}

	if rng, ok := mustResolve(t, sequence.NewResolver(reg), filepath.Join(dir, "sh010.####.exr")); ok {
		t.Fatalf("expected no sequence, got %v", rng)
	}
}

func TestResolveFallsBackWhenNoTemplateMatches(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "bg_01.tga", "bg_05.tga")
	reg := &fakeRegistry{tmpl: renderTemplate(t, "/nowhere/{Shot}.{SEQ}.exr")}

	rng, ok := mustResolve(t, sequence.NewResolver(reg), filepath.Join(dir, "bg_01.tga"))
	if !ok || rng != (sequence.Range{Min: 1, Max: 5}) {
		t.Fatalf("got %v ok=%v, want 1-5", rng, ok)
	}
}

func TestResolveFallsBackWhenTemplateFieldsDoNotParse(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "bg_01.tga", "bg_07.tga")
	reg := &fakeRegistry{tmpl: renderTemplate(t, "/nowhere/{Shot}.{SEQ}.exr"), matchAll: true}

	rng, ok := mustResolve(t, sequence.NewResolver(reg), filepath.Join(dir, "bg_01.tga"))
	if !ok || rng != (sequence.Range{Min: 1, Max: 7}) {
		t.Fatalf("got %v ok=%v, want 1-7", rng, ok)
	}
	if reg.calls != 0 {
		t.Fatal("PathsFromTemplate must not be called when fields do not parse")
	}
}

func TestResolveIgnoresHiddenSiblings(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0001.exr", "0002.exr", ".0900.exr")

	rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, "0001.exr"))
	if !ok || rng != (sequence.Range{Min: 1, Max: 2}) {
		t.Fatalf("got %v ok=%v, want 1-2", rng, ok)
	}
}

func TestResolveHiddenQueryIncludesHiddenSiblings(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, ".cache.0003.exr", ".cache.0009.exr")

	rng, ok := mustResolve(t, sequence.NewResolver(nil), filepath.Join(dir, ".cache.0003.exr"))
	if !ok || rng != (sequence.Range{Min: 3, Max: 9}) {
		t.Fatalf("got %v ok=%v, want 3-9", rng, ok)
	}
}

func filepathFrame(prefix string, frame, width int, ext string) string {
	return prefix + "." + pad(frame, width) + ext
}

func pad(n, width int) string {
	s := ""
	for v := n; v > 0; v /= 10 {
		s = string(rune('0'+v%10)) + s
	}
	for len(s) < width {
		s = "0" + s
	}
	return s
}
