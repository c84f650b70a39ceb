package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"fusionkit/internal/logging"
)

const debugEnv = "TK_DEBUG"

// Console writes messages in the host's script console format:
//
//	<time> - Shotgun <Level> | Fusion engine | <message>
//
// Debug messages are only written when TK_DEBUG=1.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	now   func() time.Time
	debug bool
}

// NewConsole returns a console writing to w. A nil w discards output.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{
		w:     w,
		now:   time.Now,
		debug: os.Getenv(debugEnv) == "1",
	}
}

// DebugEnabled reports whether debug messages are displayed.
func (c *Console) DebugEnabled() bool {
	return c.debug
}

// Display writes msg at level.
func (c *Console) Display(level slog.Level, msg string) {
	if level < slog.LevelInfo && !c.debug {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "%s - Shotgun %s | Fusion engine | %s\n",
		c.now().Format(time.ANSIC), consoleLevel(level), msg)
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "Error"
	case level >= slog.LevelWarn:
		return "Warning"
	case level >= slog.LevelInfo:
		return "Info"
	default:
		return "Debug"
	}
}

const defaultBasename = "fusionkit"

// consoleHandler routes slog records to a Console. Records are rendered as
// "Shotgun <basename>: <message>", where basename is the logger's component.
type consoleHandler struct {
	console *Console
	attrs   []slog.Attr
	groups  []string
}

// NewConsoleHandler returns a slog.Handler emitting to console.
func NewConsoleHandler(console *Console) slog.Handler {
	return &consoleHandler{console: console}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.console.debug
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	basename := defaultBasename
	var details []string
	for _, attr := range h.attrs {
		if attr.Key == logging.FieldComponent {
			basename = attr.Value.String()
			continue
		}
		details = append(details, formatDetail(attr))
	}
	record.Attrs(func(attr slog.Attr) bool {
		attr.Value = attr.Value.Resolve()
		if attr.Equal(slog.Attr{}) || attr.Key == logging.FieldSessionID {
			return true
		}
		attr.Key = h.prefix() + attr.Key
		details = append(details, formatDetail(attr))
		return true
	})

	var b strings.Builder
	if record.Level < slog.LevelInfo {
		b.WriteString("Debug: ")
	}
	b.WriteString("Shotgun ")
	b.WriteString(basename)
	b.WriteString(": ")
	b.WriteString(record.Message)
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, ", "))
		b.WriteString(")")
	}
	h.console.Display(record.Level, b.String())
	return nil
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	prefix := h.prefix()
	for _, attr := range attrs {
		attr.Value = attr.Value.Resolve()
		if prefix != "" {
			attr.Key = prefix + attr.Key
		}
		next.attrs = append(next.attrs, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *consoleHandler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func formatDetail(attr slog.Attr) string {
	return fmt.Sprintf("%s=%v", attr.Key, attr.Value.Any())
}
