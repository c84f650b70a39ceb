package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fusionkit/internal/config"
	"fusionkit/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("FUSION_VERSION", "")
	t.Setenv("FUSIONKIT_TEMPLATES", "")

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithHostVersion("9.0.2")}, opts...)...)
	configPath := filepath.Join(homeDir, ".config", "fusionkit", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nstate_dir = %q\nlog_dir = %q\ntemplates_file = %q\npublish_db = %q\n\n",
		cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Paths.TemplatesFile, cfg.Paths.PublishDB)
	fmt.Fprintf(&b, "[engine]\nhost_version = %q\n", cfg.Engine.HostVersion)
	for _, entry := range cfg.Engine.RunAtStartup {
		fmt.Fprintf(&b, "\n[[engine.run_at_startup]]\napp_instance = %q\nname = %q\n", entry.AppInstance, entry.Name)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
