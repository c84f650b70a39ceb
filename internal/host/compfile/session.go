package compfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"fusionkit/internal/host"
	"fusionkit/internal/logging"
)

const (
	sessionFileName = "session.toml"
	scratchFileName = "untitled.comp"
)

type sessionState struct {
	CurrentComp string `toml:"current_comp"`
}

// Session implements host.CurrentDocumentProvider over comp files. The path of
// the current comp is persisted in the state directory so separate processes
// share it. Edits to an untitled comp are kept in a scratch file next to the
// session state until the comp is saved or reset.
type Session struct {
	mu        sync.Mutex
	stateFile string
	scratch   string
	version   string
	comp      *Comp
	logger    *slog.Logger
}

var _ host.CurrentDocumentProvider = (*Session)(nil)

// NewSession creates a session storing its state under stateDir. version is
// reported as the host version.
func NewSession(stateDir, version string, logger *slog.Logger) *Session {
	return &Session{
		stateFile: filepath.Join(stateDir, sessionFileName),
		scratch:   filepath.Join(stateDir, scratchFileName),
		version:   strings.TrimSpace(version),
		logger:    logging.NewComponentLogger(logger, "compfile"),
	}
}

// Version returns the configured host version, or "" when unknown.
func (s *Session) Version() string {
	return s.version
}

// CurrentComp returns the comp recorded in the session state, or the untitled
// scratch comp when none was recorded or the file has since disappeared.
func (s *Session) CurrentComp(ctx context.Context) (host.Comp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.comp != nil {
		return &trackedComp{Comp: s.comp, session: s}, nil
	}

	state, err := s.readState()
	if err != nil {
		return nil, err
	}
	var comp *Comp
	if state.CurrentComp != "" {
		opened, err := Open(state.CurrentComp)
		switch {
		case err == nil:
			comp = opened
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Warn("current comp no longer exists; starting untitled",
				logging.String(logging.FieldPath, state.CurrentComp),
			)
		default:
			return nil, err
		}
	}
	if comp == nil {
		comp, err = openScratch(s.scratch)
		if err != nil {
			return nil, err
		}
	}
	s.comp = comp
	return &trackedComp{Comp: comp, session: s}, nil
}

// LoadComp opens path and makes it the current comp.
func (s *Session) LoadComp(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	comp, err := Open(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comp = comp
	return s.writeState(sessionState{CurrentComp: comp.Path()})
}

// Reset replaces the current comp with an empty untitled one.
func (s *Session) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dropScratch(); err != nil {
		return err
	}
	comp := New()
	comp.scratch = s.scratch
	s.comp = comp
	return s.writeState(sessionState{})
}

// remember records path as the current comp. A comp saved out of the untitled
// state no longer needs its scratch file.
func (s *Session) remember(path string, wasUntitled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wasUntitled {
		if err := s.dropScratch(); err != nil {
			return err
		}
	}
	return s.writeState(sessionState{CurrentComp: path})
}

func (s *Session) dropScratch() error {
	for _, name := range []string{s.scratch, s.scratch + ".lock"} {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove untitled comp: %w", err)
		}
	}
	return nil
}

func (s *Session) readState() (sessionState, error) {
	var state sessionState
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, nil
		}
		return state, fmt.Errorf("read session state: %w", err)
	}
	if err := toml.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("parse session state: %w", err)
	}
	return state, nil
}

func (s *Session) writeState(state sessionState) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(s.stateFile, data, 0o644); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

// trackedComp records save-as targets in the session state.
type trackedComp struct {
	*Comp
	session *Session
}

func (t *trackedComp) Save(path string) error {
	wasUntitled := t.Comp.Path() == ""
	if err := t.Comp.Save(path); err != nil {
		return err
	}
	return t.session.remember(t.Comp.Path(), wasUntitled)
}
