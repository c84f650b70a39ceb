package sequence

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"fusionkit/internal/logging"
	"fusionkit/internal/templates"
)

const (
	// SeqKey is the template field holding the frame number.
	SeqKey = "SEQ"
	// EyeKey is the stereo template field; siblings may differ in it.
	EyeKey = "eye"
)

// TemplateRegistry is the subset of the pipeline template system the resolver
// needs. A failed lookup is reported as ok == false, never as an error.
type TemplateRegistry interface {
	TemplateFromPath(path string) (*templates.Template, bool)
	PathsFromTemplate(tmpl *templates.Template, fields templates.Fields, skipKeys []string) ([]string, error)
}

// GlobFunc enumerates file system entries matching a '*' wildcard pattern.
type GlobFunc func(pattern string) ([]string, error)

// Resolver finds sequence frame ranges. It holds no mutable state and is safe
// for concurrent use.
type Resolver struct {
	templates TemplateRegistry
	glob      GlobFunc
	logger    *slog.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithGlob replaces the file system glob, mainly for tests.
func WithGlob(fn GlobFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.glob = fn
		}
	}
}

// WithLogger attaches a logger for debug tracing of skipped candidates.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "sequence")
	}
}

// NewResolver constructs a resolver. registry may be nil, in which case only
// file name parsing is used.
func NewResolver(registry TemplateRegistry, opts ...Option) *Resolver {
	r := &Resolver{
		templates: registry,
		glob:      filepath.Glob,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the inclusive frame range spanned by the sequence path
// belongs to. ok is false when path is not part of a detectable sequence.
func (r *Resolver) Resolve(path string) (Range, bool, error) {
	if tmpl, fields, matched := r.matchTemplate(path); matched {
		return r.fromTemplate(tmpl, fields)
	}
	return r.fromPattern(path)
}

func (r *Resolver) matchTemplate(path string) (*templates.Template, templates.Fields, bool) {
	if r.templates == nil {
		return nil, nil, false
	}
	tmpl, ok := r.templates.TemplateFromPath(path)
	if !ok || tmpl == nil {
		return nil, nil, false
	}
	fields, err := tmpl.GetFields(path)
	if err != nil {
		r.logger.Debug("template matched but fields did not parse",
			logging.String(logging.FieldPath, path),
			logging.String("template", tmpl.Name()),
			logging.Error(err),
		)
		return nil, nil, false
	}
	return tmpl, fields, true
}

func (r *Resolver) fromTemplate(tmpl *templates.Template, fields templates.Fields) (Range, bool, error) {
	if _, ok := fields[SeqKey]; !ok {
		return Range{}, false, nil
	}

	paths, err := r.templates.PathsFromTemplate(tmpl, fields, []string{SeqKey, EyeKey})
	if err != nil {
		return Range{}, false, fmt.Errorf("enumerate %s sequence: %w", tmpl.Name(), err)
	}

	frames := make([]int, 0, len(paths))
	for _, p := range paths {
		sibling, err := tmpl.GetFields(p)
		if err != nil {
			continue
		}
		if frame, ok := intField(sibling[SeqKey]); ok {
			frames = append(frames, frame)
		}
	}
	rng, ok := rangeOf(frames)
	return rng, ok, nil
}

func (r *Resolver) fromPattern(path string) (Range, bool, error) {
	stem, ext := splitExt(path)
	if _, ok := frameToken(stem); !ok {
		return Range{}, false, nil
	}

	pattern := globFor(stem, ext)
	matches, err := r.glob(pattern)
	if err != nil {
		return Range{}, false, fmt.Errorf("glob %q: %w", pattern, err)
	}

	hidden := isHidden(path)
	frames := make([]int, 0, len(matches))
	for _, match := range matches {
		if isHidden(match) && !hidden {
			continue
		}
		candidate, _ := splitExt(match)
		token, ok := frameToken(candidate)
		if !ok {
			r.logger.Debug("skipping sibling without frame token", logging.String(logging.FieldPath, match))
			continue
		}
		frame, ok := frameNumber(token)
		if !ok {
			r.logger.Debug("skipping sibling with non-numeric frame token",
				logging.String(logging.FieldPath, match),
				logging.String("token", token),
			)
			continue
		}
		frames = append(frames, frame)
	}
	rng, ok := rangeOf(frames)
	return rng, ok, nil
}

// isHidden reports whether the base name of path is a dot file. A leading
// wildcard only matches dot files when the queried name is one itself.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func intField(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
