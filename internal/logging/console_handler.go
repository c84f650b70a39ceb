package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sessionTagLen is how much of the session id prefixes each console line.
const sessionTagLen = 8

// textHandler writes one line per record:
//
//	2024-05-03T09:04:05Z WARN [3f2a9c1e] loader: missing frames path=/a.exr
//
// The component and session id attributes are lifted out of the key=value
// list. Debug records also carry their source location.
type textHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	prefix    string
	component string
	session   string
	pairs     []string
}

func newTextHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &textHandler{mu: &sync.Mutex{}, writer: w, level: lvl}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *textHandler) Handle(_ context.Context, record slog.Record) error {
	line := *h
	line.pairs = slices.Clone(h.pairs)
	record.Attrs(func(attr slog.Attr) bool {
		line.add(attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if line.session != "" {
		b.WriteString(" [")
		b.WriteString(line.session)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	if line.component != "" {
		b.WriteString(line.component)
		b.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	for _, pair := range line.pairs {
		b.WriteByte(' ')
		b.WriteString(pair)
	}
	if record.Level < slog.LevelInfo {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" [")
			b.WriteString(filepath.Base(src.File))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(src.Line))
			b.WriteByte(']')
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.pairs = slices.Clone(h.pairs)
	for _, attr := range attrs {
		next.add(attr)
	}
	return &next
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// add records attr, flattening groups into dotted keys.
func (h *textHandler) add(attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := *h
		if attr.Key != "" {
			inner.prefix = h.prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			inner.add(member)
		}
		h.pairs = inner.pairs
		return
	}
	switch {
	case attr.Key == FieldSessionID:
		h.session = shortSession(attr.Value.String())
		return
	case attr.Key == FieldComponent && h.prefix == "":
		h.component = attr.Value.String()
		return
	}
	h.pairs = append(h.pairs, h.prefix+attr.Key+"="+formatValue(attr.Value))
}

func shortSession(id string) string {
	if len(id) > sessionTagLen {
		return id[:sessionTagLen]
	}
	return id
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = v.String()
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n=\"") {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
