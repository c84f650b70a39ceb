package templates

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoMatch indicates a path does not fit a template definition.
var ErrNoMatch = errors.New("path does not match template")

// Fields maps template key names to typed values (string or int).
type Fields map[string]any

var tokenPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type segment struct {
	static string
	key    string
}

// Template is a compiled path definition.
type Template struct {
	name       string
	definition string
	segments   []segment
	keys       map[string]Key
	order      []string
	re         *regexp.Regexp
	groups     []string
}

// New compiles definition into a template. Every {token} must name a key in
// keys.
func New(name, definition string, keys map[string]Key) (*Template, error) {
	definition = filepath.ToSlash(strings.TrimSpace(definition))
	if definition == "" {
		return nil, fmt.Errorf("template %s: empty definition", name)
	}

	t := &Template{name: name, definition: definition, keys: map[string]Key{}}
	var expr strings.Builder
	expr.WriteString("^")

	last := 0
	seen := map[string]bool{}
	for _, loc := range tokenPattern.FindAllStringSubmatchIndex(definition, -1) {
		if loc[0] > last {
			static := definition[last:loc[0]]
			t.segments = append(t.segments, segment{static: static})
			expr.WriteString(regexp.QuoteMeta(static))
		}
		keyName := definition[loc[2]:loc[3]]
		key, ok := keys[keyName]
		if !ok {
			return nil, fmt.Errorf("template %s: undefined key %q", name, keyName)
		}
		if key.Name == "" {
			key.Name = keyName
		}
		t.keys[keyName] = key
		if !seen[keyName] {
			seen[keyName] = true
			t.order = append(t.order, keyName)
		}
		t.segments = append(t.segments, segment{key: keyName})
		t.groups = append(t.groups, keyName)
		expr.WriteString(key.pattern())
		last = loc[1]
	}
	if last < len(definition) {
		static := definition[last:]
		t.segments = append(t.segments, segment{static: static})
		expr.WriteString(regexp.QuoteMeta(static))
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	t.re = re
	return t, nil
}

// Name returns the template's registry name.
func (t *Template) Name() string { return t.name }

// Definition returns the template's path definition.
func (t *Template) Definition() string { return t.definition }

// Keys returns the key names in definition order.
func (t *Template) Keys() []string {
	return append([]string(nil), t.order...)
}

// GetFields parses path into typed fields. It returns ErrNoMatch when the path
// does not fit the definition or a repeated key holds differing values.
func (t *Template) GetFields(path string) (Fields, error) {
	m := t.re.FindStringSubmatch(filepath.ToSlash(path))
	if m == nil {
		return nil, fmt.Errorf("%w: %s does not fit %s", ErrNoMatch, path, t.name)
	}
	fields := make(Fields, len(t.order))
	for i, keyName := range t.groups {
		value, err := t.keys[keyName].parse(m[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
		}
		if prev, ok := fields[keyName]; ok && !sameValue(prev, value) {
			return nil, fmt.Errorf("%w: key %s has conflicting values %v and %v", ErrNoMatch, keyName, prev, value)
		}
		fields[keyName] = value
	}
	return fields, nil
}

// Validate reports whether path fits the template.
func (t *Template) Validate(path string) bool {
	_, err := t.GetFields(path)
	return err == nil
}

// Apply renders fields into a path. Every key of the template must be present.
func (t *Template) Apply(fields Fields) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.key == "" {
			b.WriteString(seg.static)
			continue
		}
		value, ok := fields[seg.key]
		if !ok {
			return "", fmt.Errorf("template %s: missing field %q", t.name, seg.key)
		}
		rendered, err := t.keys[seg.key].render(value)
		if err != nil {
			return "", fmt.Errorf("template %s: %w", t.name, err)
		}
		b.WriteString(rendered)
	}
	return filepath.FromSlash(b.String()), nil
}

// globPattern renders a glob where skipped or missing keys become '*'.
func (t *Template) globPattern(fields Fields, skip map[string]bool) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.key == "" {
			b.WriteString(escapeGlob(seg.static))
			continue
		}
		value, ok := fields[seg.key]
		if !ok || skip[seg.key] {
			b.WriteString("*")
			continue
		}
		rendered, err := t.keys[seg.key].render(value)
		if err != nil {
			return "", fmt.Errorf("template %s: %w", t.name, err)
		}
		b.WriteString(escapeGlob(rendered))
	}
	return filepath.FromSlash(b.String()), nil
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
