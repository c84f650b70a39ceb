package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"fusionkit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TemplatesFile = filepath.Join(base, "templates.yml")
	cfgVal.Paths.PublishDB = filepath.Join(base, "state", "publishes.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTemplates writes contents to the config's templates file.
func WithTemplates(contents string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Paths.TemplatesFile, []byte(contents), 0o644); err != nil {
			b.t.Fatalf("write templates: %v", err)
		}
	}
}

// WithHostVersion sets the host version reported by the file-backed host.
func WithHostVersion(version string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.HostVersion = version
	}
}

// WithStartupCommands replaces the engine's run_at_startup entries.
func WithStartupCommands(cmds ...config.StartupCommand) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.RunAtStartup = cmds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
