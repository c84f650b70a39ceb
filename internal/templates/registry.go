package templates

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobFunc enumerates file system entries matching a wildcard pattern.
type GlobFunc func(pattern string) ([]string, error)

// Registry holds templates in definition order.
type Registry struct {
	root      string
	templates []*Template
	byName    map[string]*Template
	glob      GlobFunc
}

type fileKey struct {
	Type       string `yaml:"type"`
	FormatSpec string `yaml:"format_spec"`
}

type fileDefinition struct {
	Definition string `yaml:"definition"`
}

type templatesFile struct {
	Root  string             `yaml:"root"`
	Keys  map[string]fileKey `yaml:"keys"`
	Paths yaml.Node          `yaml:"paths"`
}

// NewRegistry returns an empty registry that matches nothing.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Template{}, glob: filepath.Glob}
}

// Load reads a templates YAML file. Relative definitions are resolved against
// the file's root entry, or the file's directory when root is unset.
func Load(file string) (*Registry, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return Parse(data, filepath.Dir(file))
}

// Parse decodes templates YAML. baseDir anchors a relative root.
func Parse(data []byte, baseDir string) (*Registry, error) {
	var doc templatesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	keys := make(map[string]Key, len(doc.Keys))
	for name, k := range doc.Keys {
		kt := KeyType(strings.ToLower(strings.TrimSpace(k.Type)))
		switch kt {
		case "":
			kt = KeyString
		case KeyString, KeyInt, KeySequence:
		default:
			return nil, fmt.Errorf("key %s: unsupported type %q", name, k.Type)
		}
		keys[name] = Key{Name: name, Type: kt, FormatSpec: strings.TrimSpace(k.FormatSpec)}
	}

	root := strings.TrimSpace(doc.Root)
	if root != "" && !filepath.IsAbs(root) && baseDir != "" {
		root = filepath.Join(baseDir, root)
	}

	reg := NewRegistry()
	reg.root = root

	if doc.Paths.Kind == 0 {
		return reg, nil
	}
	if doc.Paths.Kind != yaml.MappingNode {
		return nil, errors.New("parse templates: paths must be a mapping")
	}
	// Mapping content alternates key and value nodes; definition order is
	// match priority.
	for i := 0; i+1 < len(doc.Paths.Content); i += 2 {
		name := doc.Paths.Content[i].Value
		definition, err := decodeDefinition(doc.Paths.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		if err := reg.Add(name, definition, keys); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func decodeDefinition(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.MappingNode:
		var def fileDefinition
		if err := node.Decode(&def); err != nil {
			return "", err
		}
		return def.Definition, nil
	default:
		return "", errors.New("definition must be a string or mapping")
	}
}

// Add compiles and registers a template. Relative definitions are joined to
// the registry root.
func (r *Registry) Add(name, definition string, keys map[string]Key) error {
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("template %s: duplicate name", name)
	}
	definition = filepath.ToSlash(strings.TrimSpace(definition))
	if r.root != "" && !path.IsAbs(definition) {
		definition = path.Join(filepath.ToSlash(r.root), definition)
	}
	tmpl, err := New(name, definition, keys)
	if err != nil {
		return err
	}
	r.templates = append(r.templates, tmpl)
	r.byName[name] = tmpl
	return nil
}

// SetGlob replaces the file system glob used by PathsFromTemplate.
func (r *Registry) SetGlob(fn GlobFunc) {
	if fn != nil {
		r.glob = fn
	}
}

// Template returns the named template.
func (r *Registry) Template(name string) (*Template, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Templates returns all templates in match priority order.
func (r *Registry) Templates() []*Template {
	return append([]*Template(nil), r.templates...)
}

// TemplateFromPath returns the first template whose definition fits path.
func (r *Registry) TemplateFromPath(p string) (*Template, bool) {
	if r == nil {
		return nil, false
	}
	for _, t := range r.templates {
		if t.Validate(p) {
			return t, true
		}
	}
	return nil, false
}

// PathsFromTemplate lists the files on disk that fit tmpl and agree with
// fields on every key except skipKeys. Keys absent from fields are treated as
// skipped. Results are sorted.
func (r *Registry) PathsFromTemplate(tmpl *Template, fields Fields, skipKeys []string) ([]string, error) {
	skip := make(map[string]bool, len(skipKeys))
	for _, k := range skipKeys {
		skip[k] = true
	}
	pattern, err := tmpl.globPattern(fields, skip)
	if err != nil {
		return nil, err
	}
	matches, err := r.glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		got, err := tmpl.GetFields(m)
		if err != nil {
			continue
		}
		if agrees(got, fields, skip) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func agrees(got, want Fields, skip map[string]bool) bool {
	for k, v := range want {
		if skip[k] {
			continue
		}
		gv, ok := got[k]
		if !ok {
			continue
		}
		if !sameValue(gv, v) {
			return false
		}
	}
	return true
}
