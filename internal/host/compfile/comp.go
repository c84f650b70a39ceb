package compfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"fusionkit/internal/host"
)

// ErrUntitled is returned when a write needs a file but the comp was never saved.
var ErrUntitled = errors.New("comp has not been saved")

type toolRecord struct {
	ID            string           `toml:"id"`
	Name          string           `toml:"name"`
	Type          string           `toml:"type"`
	Clip          string           `toml:"clip"`
	Frames        *host.FrameRange `toml:"frames,omitempty"`
	ClipTimeStart int              `toml:"clip_time_start"`
}

type document struct {
	Attrs map[string]any `toml:"attrs"`
	Tools []toolRecord   `toml:"tools"`
}

// Comp is a comp document backed by a TOML file. Mutations are written
// through to disk unless the comp is locked, in which case they are flushed on
// Unlock. Every write happens under the file lock after re-reading the file,
// so handles in different processes never overwrite each other's edits.
//
// An untitled comp has no file name; when it was created with a scratch file
// its edits are kept there until it is saved.
type Comp struct {
	mu      sync.Mutex
	path    string
	scratch string
	doc     document
	lock    *flock.Flock
	locked  bool
	dirty   bool
}

// New returns an untitled comp with default frame attributes.
func New() *Comp {
	return &Comp{doc: document{Attrs: defaultAttrs()}}
}

func defaultAttrs() map[string]any {
	return map[string]any{
		host.AttrGlobalStart: int64(0),
		host.AttrGlobalEnd:   int64(1000),
		host.AttrRenderStart: int64(0),
		host.AttrRenderEnd:   int64(1000),
	}
}

// Open reads the comp stored at path.
func Open(path string) (*Comp, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve comp path: %w", err)
	}
	doc, err := readDocument(abs)
	if err != nil {
		return nil, err
	}
	return &Comp{path: abs, doc: doc}, nil
}

// openScratch returns an untitled comp whose edits persist in scratch. The
// previous contents of scratch are restored when the file exists.
func openScratch(scratch string) (*Comp, error) {
	comp := New()
	comp.scratch = scratch
	doc, err := readDocument(scratch)
	switch {
	case err == nil:
		comp.doc = doc
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	return comp, nil
}

func readDocument(path string) (document, error) {
	var doc document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read comp: %w", err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse comp %s: %w", path, err)
	}
	if doc.Attrs == nil {
		doc.Attrs = defaultAttrs()
	}
	return doc, nil
}

// Path returns the comp's file name, or "" for an untitled comp.
func (c *Comp) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Attrs returns a copy of the comp attributes including COMPS_FileName.
func (c *Comp) Attrs() host.Attrs {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(host.Attrs, len(c.doc.Attrs)+1)
	for k, v := range c.doc.Attrs {
		out[k] = v
	}
	out[host.AttrFileName] = c.path
	return out
}

// SetAttrs merges attrs into the comp. COMPS_FileName is read-only; use Save.
func (c *Comp) SetAttrs(attrs host.Attrs) error {
	if _, ok := attrs[host.AttrFileName]; ok {
		return fmt.Errorf("attribute %s is read-only", host.AttrFileName)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editLocked(func() {
		for k, v := range attrs {
			switch n := v.(type) {
			case int:
				v = int64(n)
			case nil:
				delete(c.doc.Attrs, k)
				continue
			}
			c.doc.Attrs[k] = v
		}
	})
}

// Tools returns the comp's nodes in creation order.
func (c *Comp) Tools() []host.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	tools := make([]host.Tool, 0, len(c.doc.Tools))
	for _, rec := range c.doc.Tools {
		tools = append(tools, host.Tool(rec))
	}
	return tools
}

// AddLoader creates a read node named after the next free LoaderN slot.
func (c *Comp) AddLoader(spec host.LoaderSpec) (host.Tool, error) {
	if strings.TrimSpace(spec.Clip) == "" {
		return host.Tool{}, errors.New("loader clip must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := toolRecord{
		ID:            uuid.NewString(),
		Type:          host.ToolLoader,
		Clip:          spec.Clip,
		ClipTimeStart: spec.ClipTimeStart,
	}
	if spec.Frames != nil {
		frames := *spec.Frames
		rec.Frames = &frames
	}
	err := c.editLocked(func() {
		rec.Name = c.nextNameLocked(host.ToolLoader)
		c.doc.Tools = append(c.doc.Tools, rec)
	})
	if err != nil {
		c.doc.Tools = slices.DeleteFunc(c.doc.Tools, func(r toolRecord) bool { return r.ID == rec.ID })
		return host.Tool{}, err
	}
	return host.Tool(rec), nil
}

func (c *Comp) nextNameLocked(prefix string) string {
	highest := 0
	for _, rec := range c.doc.Tools {
		suffix, ok := strings.CutPrefix(rec.Name, prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil {
			highest = max(highest, n)
		}
	}
	return prefix + strconv.Itoa(highest+1)
}

// Lock starts a batch edit. When the comp is backed by a file it takes the
// file lock and reloads the document so the batch applies to the latest
// contents.
func (c *Comp) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		return errors.New("comp is already locked")
	}
	if target := c.backingLocked(); target != "" {
		fl, err := acquireFileLock(target)
		if err != nil {
			return err
		}
		if err := c.reloadLocked(target); err != nil {
			_ = fl.Unlock()
			return err
		}
		c.lock = fl
	}
	c.locked = true
	return nil
}

// Unlock flushes pending edits and releases the file lock.
func (c *Comp) Unlock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.locked {
		return nil
	}
	c.locked = false
	var flushErr error
	if target := c.backingLocked(); c.dirty && target != "" {
		flushErr = c.writeLocked(target)
	}
	if c.lock != nil {
		if err := c.lock.Unlock(); err != nil && flushErr == nil {
			flushErr = fmt.Errorf("unlock comp: %w", err)
		}
		c.lock = nil
	}
	return flushErr
}

// Save writes the comp to path and makes path its file name.
func (c *Comp) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(path) == "" {
		path = c.path
	}
	if path == "" {
		return ErrUntitled
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve comp path: %w", err)
	}
	if err := c.writeLocked(abs); err != nil {
		return err
	}
	c.path = abs
	return nil
}

// backingLocked returns the file edits are written to, or "" for an untitled
// comp without a scratch file.
func (c *Comp) backingLocked() string {
	if c.path != "" {
		return c.path
	}
	return c.scratch
}

// editLocked applies fn to the document. Outside a batch the file lock is held
// while the document is reloaded, changed and written back.
func (c *Comp) editLocked(fn func()) error {
	target := c.backingLocked()
	if c.locked || target == "" {
		fn()
		c.dirty = true
		return nil
	}
	fl, err := acquireFileLock(target)
	if err != nil {
		return err
	}
	defer func() { _ = fl.Unlock() }()
	if err := c.reloadLocked(target); err != nil {
		return err
	}
	fn()
	c.dirty = true
	return c.writeLocked(target)
}

// reloadLocked replaces the in-memory document with the contents of path. A
// file that does not exist yet leaves the document unchanged.
func (c *Comp) reloadLocked(path string) error {
	doc, err := readDocument(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	c.doc = doc
	return nil
}

func acquireFileLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create comp directory: %w", err)
	}
	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock comp: %w", err)
	}
	return fl, nil
}

func (c *Comp) writeLocked(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c.doc); err != nil {
		return fmt.Errorf("encode comp: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create comp directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".comp-*")
	if err != nil {
		return fmt.Errorf("create temp comp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod comp: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write comp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close comp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace comp: %w", err)
	}
	c.dirty = false
	return nil
}
