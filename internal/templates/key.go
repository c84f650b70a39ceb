package templates

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyType enumerates the field types a template key can hold.
type KeyType string

const (
	KeyString   KeyType = "str"
	KeyInt      KeyType = "int"
	KeySequence KeyType = "sequence"
)

// Key describes a single template field.
type Key struct {
	Name string
	Type KeyType
	// FormatSpec is a zero padded width such as "04" applied when rendering
	// int and sequence values.
	FormatSpec string
}

func (k Key) pattern() string {
	switch k.Type {
	case KeyInt:
		return `([0-9]+)`
	case KeySequence:
		return `([0-9]+|#+|%0\dd)`
	default:
		return `([^/]+?)`
	}
}

// parse converts a captured substring into the typed field value.
func (k Key) parse(raw string) (any, error) {
	switch k.Type {
	case KeyInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k.Name, err)
		}
		return n, nil
	case KeySequence:
		if strings.ContainsAny(raw, "#%") {
			return raw, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k.Name, err)
		}
		return n, nil
	default:
		return raw, nil
	}
}

// render formats value for insertion into a path.
func (k Key) render(value any) (string, error) {
	switch k.Type {
	case KeyInt, KeySequence:
		switch v := value.(type) {
		case int:
			return k.pad(v), nil
		case int64:
			return k.pad(int(v)), nil
		case string:
			if k.Type == KeySequence && strings.ContainsAny(v, "#%") {
				return v, nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", fmt.Errorf("key %s: value %q is not an integer", k.Name, v)
			}
			return k.pad(n), nil
		default:
			return "", fmt.Errorf("key %s: unsupported value %v (%T)", k.Name, value, value)
		}
	default:
		s := fmt.Sprint(value)
		if s == "" || strings.Contains(s, "/") {
			return "", fmt.Errorf("key %s: invalid value %q", k.Name, s)
		}
		return s, nil
	}
}

func (k Key) pad(n int) string {
	width, err := strconv.Atoi(k.FormatSpec)
	if err != nil || width <= 0 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%0*d", width, n)
}
