package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fusionkit/internal/config"
	"fusionkit/internal/host"
	"fusionkit/internal/logging"
	"fusionkit/internal/preflight"
)

// HostName is the name reported for the compositing host.
const HostName = "Fusion"

const (
	unknownVersion = "unknown"
	// CompatibilityDialogEnv is set once the compatibility warning has been shown
	// so child processes of the same session do not show it again.
	CompatibilityDialogEnv = "SGTK_COMPATIBILITY_DIALOG_SHOWN"
)

// Oldest and newest host versions the engine is tested against.
const (
	minMajor    = 9
	testedMajor = 9
	testedMinor = 0
)

var (
	// ErrIncompatibleHost is returned when the host version is too old.
	ErrIncompatibleHost = errors.New("incompatible host version")
	// ErrUnsupportedPlatform is returned on operating systems the host does not ship for.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrPreflight is returned when a required location is unusable.
	ErrPreflight = errors.New("preflight failed")
)

var supportedPlatforms = []string{"darwin", "linux", "windows"}

// HostInfo describes the application hosting the engine.
type HostInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Engine is the toolkit engine running inside the host.
type Engine struct {
	cfg       *config.Config
	host      host.CurrentDocumentProvider
	console   *Console
	base      *slog.Logger
	logger    *slog.Logger
	sessionID string
	platform  string
	restart   func(context.Context) error
	openDir   func(string) error

	mu          sync.Mutex
	commands    map[string]*Command
	order       []string
	menuName    string
	initialized bool
	preflight   []preflight.Result
}

// Option customizes an Engine.
type Option func(*Engine)

// WithConsole sends host console output to w.
func WithConsole(w io.Writer) Option {
	return func(e *Engine) {
		e.console = NewConsole(w)
	}
}

// WithPlatform overrides the detected operating system.
func WithPlatform(goos string) Option {
	return func(e *Engine) {
		e.platform = goos
	}
}

// WithRestart replaces the callback of the built-in "Reload and Restart" command.
func WithRestart(fn func(context.Context) error) Option {
	return func(e *Engine) {
		e.restart = fn
	}
}

// WithFolderOpener replaces how "Open Log Folder" reveals the log directory.
func WithFolderOpener(fn func(string) error) Option {
	return func(e *Engine) {
		e.openDir = fn
	}
}

// New constructs an engine. Init must be called before commands are run.
func New(cfg *config.Config, provider host.CurrentDocumentProvider, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		host:      provider,
		sessionID: uuid.NewString(),
		platform:  runtime.GOOS,
		openDir:   func(string) error { return nil },
		commands:  make(map[string]*Command),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.console == nil {
		e.console = NewConsole(nil)
	}
	e.base = logging.TeeLogger(logging.WithSession(logger, e.sessionID), NewConsoleHandler(e.console))
	e.logger = logging.NewComponentLogger(e.base, "engine")
	if e.restart == nil {
		e.restart = e.reload
	}
	return e
}

// Logger returns a logger for the named component that also reaches the host console.
func (e *Engine) Logger(component string) *slog.Logger {
	return logging.NewComponentLogger(e.base, component)
}

// SessionID identifies this engine instance in log output.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// HostInfo reports the host name and version. Version is "unknown" when the
// host cannot report one.
func (e *Engine) HostInfo() HostInfo {
	info := HostInfo{Name: HostName, Version: unknownVersion}
	if v := e.reportedVersion(); v != "" {
		info.Version = v
	}
	return info
}

func (e *Engine) reportedVersion() string {
	if e.host == nil {
		return ""
	}
	return strings.TrimSpace(e.host.Version())
}

// MenuName is the title of the toolkit menu in the host.
func (e *Engine) MenuName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.menuName
}

// Preflight returns the results of the checks run by Init.
func (e *Engine) Preflight() []preflight.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.preflight)
}

// Init verifies the platform and host version, checks the configured
// locations and registers the built-in commands.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.logger.Debug("initializing", logging.String(logging.FieldSessionID, e.sessionID))

	if !slices.Contains(supportedPlatforms, e.platform) {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedPlatform, e.platform, strings.Join(supportedPlatforms, ", "))
	}
	if err := e.checkHostVersion(); err != nil {
		return err
	}

	results := preflight.RunAll(e.cfg)
	for _, r := range results {
		if !r.Passed && r.Optional {
			e.logger.Info("optional preflight check failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, r.Name+": "+r.Detail)
		}
		return fmt.Errorf("%w: %s", ErrPreflight, strings.Join(details, "; "))
	}

	e.mu.Lock()
	e.preflight = results
	e.menuName = e.cfg.MenuName()
	e.initialized = true
	e.mu.Unlock()

	e.registerBuiltins()
	return nil
}

func (e *Engine) checkHostVersion() error {
	raw := e.reportedVersion()
	if raw == "" {
		e.logger.Warn("host did not report a version; skipping compatibility checks")
		return nil
	}
	version, err := parseHostVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatibleHost, err)
	}
	if version.major < minMajor {
		return fmt.Errorf("%w: integration is not compatible with %s versions older than %d (found %s)",
			ErrIncompatibleHost, HostName, minMajor, raw)
	}
	if version.compare(testedMajor, testedMinor) <= 0 {
		return nil
	}

	msg := fmt.Sprintf("The toolkit has not yet been fully tested with %s %s. "+
		"You can continue to use it but you may experience bugs or instability.", HostName, version)
	if e.shouldShowCompatibilityDialog(version) {
		e.console.Display(slog.LevelInfo, msg)
	}
	e.logger.Warn(msg)
	return nil
}

// shouldShowCompatibilityDialog reports whether the compatibility warning is
// shown in the host. It is shown at most once per session, and only for major
// versions at or above compatibility_dialog_min_version.
func (e *Engine) shouldShowCompatibilityDialog(version hostVersion) bool {
	if _, shown := os.LookupEnv(CompatibilityDialogEnv); shown {
		return false
	}
	_ = os.Setenv(CompatibilityDialogEnv, "1")
	return version.major >= e.cfg.Engine.CompatibilityDialogMinVersion
}

// Destroy tears the engine down. Registered commands are dropped.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = make(map[string]*Command)
	e.order = nil
	e.initialized = false
	e.logger.Debug("destroying")
}

func (e *Engine) reload(ctx context.Context) error {
	e.mu.Lock()
	preserved := make([]*Command, 0, len(e.order))
	for _, name := range e.order {
		if cmd := e.commands[name]; cmd.Properties.App != "" {
			preserved = append(preserved, cmd)
		}
	}
	e.mu.Unlock()

	e.Destroy()
	if err := e.Init(ctx); err != nil {
		return fmt.Errorf("reload engine: %w", err)
	}
	for _, cmd := range preserved {
		if err := e.RegisterCommand(cmd.Name, cmd.Callback, cmd.Properties); err != nil {
			return err
		}
	}
	e.logger.Info("engine reloaded")
	return nil
}
