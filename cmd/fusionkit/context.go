package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"fusionkit/internal/config"
	"fusionkit/internal/engine"
	"fusionkit/internal/host/compfile"
	"fusionkit/internal/logging"
	"fusionkit/internal/publish"
	"fusionkit/internal/sequence"
	"fusionkit/internal/templates"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	sessionOnce sync.Once
	session     *compfile.Session
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue returns the CLI logger. Logs go to the log file, and also to
// stderr with --verbose. Logger setup failures degrade to a no-op logger.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		var (
			logger *slog.Logger
			err    error
		)
		switch {
		case cfg == nil:
			logger = logging.NewNop()
		case c.verboseFlag != nil && *c.verboseFlag:
			logger, err = logging.NewFromConfig(cfg)
		default:
			logger, err = logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{logFilePath(cfg)},
			})
		}
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func logFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "fusionkit.log")
}

func (c *commandContext) sessionValue() *compfile.Session {
	c.sessionOnce.Do(func() {
		cfg := c.configValue()
		c.session = compfile.NewSession(cfg.Paths.StateDir, cfg.Engine.HostVersion, c.loggerValue())
	})
	return c.session
}

// templateRegistry loads the configured templates file. A missing file yields
// an empty registry so resolution falls back to file name parsing.
func (c *commandContext) templateRegistry() (*templates.Registry, error) {
	cfg := c.configValue()
	reg, err := templates.Load(cfg.Paths.TemplatesFile)
	if errors.Is(err, fs.ErrNotExist) {
		c.loggerValue().Debug("templates file not found; using file name parsing only",
			logging.String(logging.FieldPath, cfg.Paths.TemplatesFile),
		)
		return templates.NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return reg, nil
}

func (c *commandContext) resolver() (*sequence.Resolver, error) {
	reg, err := c.templateRegistry()
	if err != nil {
		return nil, err
	}
	return sequence.NewResolver(reg, sequence.WithLogger(c.loggerValue())), nil
}

func (c *commandContext) withStore(fn func(*publish.Store) error) error {
	store, err := publish.Open(c.configValue())
	if err != nil {
		return fmt.Errorf("open publish registry: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// newEngine builds an engine whose host console writes to console.
func (c *commandContext) newEngine(console io.Writer) *engine.Engine {
	e := engine.New(c.configValue(), c.sessionValue(), c.loggerValue(),
		engine.WithConsole(console),
		engine.WithFolderOpener(openFolder),
	)
	registerAppCommands(e, c)
	return e
}

func openFolder(dir string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name = "explorer"
	default:
		name = "xdg-open"
	}
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not available: %w", name, err)
	}
	return exec.Command(name, dir).Start()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
