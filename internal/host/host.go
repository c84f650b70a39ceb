// Package host abstracts the compositing application the toolkit runs inside.
//
// Components receive a CurrentDocumentProvider instead of reaching for a
// process-wide application handle, so the same hooks drive the live host, the
// file-backed comp documents in host/compfile, or a test double.
package host

import (
	"context"
	"errors"
	"math"
)

// Comp attribute names understood by the hooks.
const (
	AttrFileName    = "COMPS_FileName"
	AttrGlobalStart = "COMPN_GlobalStart"
	AttrGlobalEnd   = "COMPN_GlobalEnd"
	AttrRenderStart = "COMPN_RenderStart"
	AttrRenderEnd   = "COMPN_RenderEnd"
)

// ToolLoader is the tool type created for read nodes.
const ToolLoader = "Loader"

// ErrNoComp is returned when the host has no comp open.
var ErrNoComp = errors.New("no comp is open")

// Attrs holds comp attributes. Values are strings or numbers.
type Attrs map[string]any

// Int returns the attribute as an int. Floating point values are truncated the
// way the host reports frame numbers.
func (a Attrs) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

// String returns the attribute as a string.
func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// LoaderSpec describes a read node to create.
type LoaderSpec struct {
	Clip string
	// Frames, when set, overrides the clip's detected range.
	Frames        *FrameRange
	ClipTimeStart int
}

// FrameRange is the global in/out of a loader.
type FrameRange struct {
	In  int `json:"in" toml:"in"`
	Out int `json:"out" toml:"out"`
}

// Tool is a node in the comp.
type Tool struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	Clip          string      `json:"clip"`
	Frames        *FrameRange `json:"frames,omitempty"`
	ClipTimeStart int         `json:"clip_time_start"`
}

// Comp is an open composition document.
type Comp interface {
	Attrs() Attrs
	SetAttrs(Attrs) error
	Save(path string) error
	// Lock batches edits until Unlock; the host defers refreshes meanwhile.
	Lock() error
	Unlock() error
	AddLoader(LoaderSpec) (Tool, error)
	Tools() []Tool
}

// CurrentDocumentProvider exposes the host application's active document.
type CurrentDocumentProvider interface {
	CurrentComp(ctx context.Context) (Comp, error)
	LoadComp(ctx context.Context, path string) error
	Version() string
}
