package engine_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fusionkit/internal/config"
	"fusionkit/internal/engine"
	"fusionkit/internal/host/compfile"
	"fusionkit/internal/logging"
	"fusionkit/internal/testsupport"
)

func newEngine(t *testing.T, cfg *config.Config, console *bytes.Buffer, opts ...engine.Option) *engine.Engine {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	session := compfile.NewSession(cfg.Paths.StateDir, cfg.Engine.HostVersion, logging.NewNop())
	opts = append([]engine.Option{engine.WithConsole(console), engine.WithPlatform("linux")}, opts...)
	return engine.New(cfg, session, logging.NewNop(), opts...)
}

func clearDialogEnv(t *testing.T) {
	t.Helper()
	t.Setenv(engine.CompatibilityDialogEnv, "")
	if err := os.Unsetenv(engine.CompatibilityDialogEnv); err != nil {
		t.Fatal(err)
	}
}

func TestHostInfo(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, testsupport.NewConfig(t), &out)
	if diff := cmp.Diff(engine.HostInfo{Name: "Fusion", Version: "unknown"}, e.HostInfo()); diff != "" {
		t.Fatalf("host info mismatch (-want +got):\n%s", diff)
	}

	e = newEngine(t, testsupport.NewConfig(t, testsupport.WithHostVersion("9.0.2")), &out)
	if got := e.HostInfo().Version; got != "9.0.2" {
		t.Fatalf("version = %q", got)
	}
}

func TestInitWithoutHostProvider(t *testing.T) {
	var out bytes.Buffer
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	e := engine.New(cfg, nil, logging.NewNop(), engine.WithConsole(&out), engine.WithPlatform("linux"))
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := e.HostInfo().Version; got != "unknown" {
		t.Fatalf("version = %q, want unknown", got)
	}
}

func TestInitRejectsOldHost(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, testsupport.NewConfig(t, testsupport.WithHostVersion("8.2")), &out)
	if err := e.Init(context.Background()); !errors.Is(err, engine.ErrIncompatibleHost) {
		t.Fatalf("expected ErrIncompatibleHost, got %v", err)
	}
}

func TestInitRejectsUnparseableVersion(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, testsupport.NewConfig(t, testsupport.WithHostVersion("beta")), &out)
	if err := e.Init(context.Background()); !errors.Is(err, engine.ErrIncompatibleHost) {
		t.Fatalf("expected ErrIncompatibleHost, got %v", err)
	}
}

func TestInitRejectsUnsupportedPlatform(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, testsupport.NewConfig(t), &out, engine.WithPlatform("plan9"))
	if err := e.Init(context.Background()); !errors.Is(err, engine.ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestInitFailsPreflightWithoutDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHostVersion("9.0"))
	session := compfile.NewSession(t.TempDir(), "9.0", nil)
	e := engine.New(cfg, session, nil, engine.WithPlatform("linux"))
	if err := e.Init(context.Background()); !errors.Is(err, engine.ErrPreflight) {
		t.Fatalf("expected ErrPreflight, got %v", err)
	}
}

func TestInitTestedVersionIsQuiet(t *testing.T) {
	clearDialogEnv(t)
	var out bytes.Buffer
	e := newEngine(t, testsupport.NewConfig(t, testsupport.WithHostVersion("9.0.2")), &out)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if e.MenuName() != "Shotgun" {
		t.Fatalf("menu name = %q", e.MenuName())
	}
	if strings.Contains(out.String(), "Warning") {
		t.Fatalf("unexpected warning:\n%s", out.String())
	}
	if _, set := os.LookupEnv(engine.CompatibilityDialogEnv); set {
		t.Fatal("dialog env should not be set for tested versions")
	}
}

func TestInitShowsCompatibilityDialogOnce(t *testing.T) {
	clearDialogEnv(t)
	cfg := testsupport.NewConfig(t, testsupport.WithHostVersion("16.1"))

	var first bytes.Buffer
	if err := newEngine(t, cfg, &first).Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !strings.Contains(first.String(), "- Shotgun Info | Fusion engine | The toolkit has not yet been fully tested with Fusion 16.1") {
		t.Fatalf("expected dialog message, got:\n%s", first.String())
	}
	if !strings.Contains(first.String(), "- Shotgun Warning | Fusion engine | Shotgun engine: The toolkit has not yet been fully tested") {
		t.Fatalf("expected warning log, got:\n%s", first.String())
	}
	if os.Getenv(engine.CompatibilityDialogEnv) != "1" {
		t.Fatal("expected dialog env to be set")
	}

	var second bytes.Buffer
	if err := newEngine(t, cfg, &second).Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if strings.Contains(second.String(), "Shotgun Info") {
		t.Fatalf("dialog shown twice:\n%s", second.String())
	}
	if !strings.Contains(second.String(), "Shotgun Warning") {
		t.Fatalf("expected warning on every init, got:\n%s", second.String())
	}
}

func TestCompatibilityDialogRespectsMinVersion(t *testing.T) {
	clearDialogEnv(t)
	cfg := testsupport.NewConfig(t, testsupport.WithHostVersion("9.5"))
	cfg.Engine.CompatibilityDialogMinVersion = 10

	var out bytes.Buffer
	if err := newEngine(t, cfg, &out).Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if strings.Contains(out.String(), "Shotgun Info") {
		t.Fatalf("dialog should be suppressed below min version:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Shotgun Warning") {
		t.Fatalf("expected warning, got:\n%s", out.String())
	}
}

func TestSgtkMenuName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Engine.UseSgtkAsMenuName = true
	var out bytes.Buffer
	e := newEngine(t, cfg, &out)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if e.MenuName() != "Sgtk" {
		t.Fatalf("menu name = %q", e.MenuName())
	}
}

func TestBuiltinCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var opened string
	var out bytes.Buffer
	e := newEngine(t, cfg, &out, engine.WithFolderOpener(func(dir string) error {
		opened = dir
		return nil
	}))
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var names []string
	for _, cmd := range e.Commands() {
		names = append(names, cmd.Name)
		if cmd.Properties.Type != engine.CommandTypeContextMenu {
			t.Errorf("%s: type = %q", cmd.Name, cmd.Properties.Type)
		}
	}
	if diff := cmp.Diff([]string{"Open Log Folder", "Reload and Restart"}, names); diff != "" {
		t.Fatalf("builtins mismatch (-want +got):\n%s", diff)
	}

	if err := e.RunCommand(context.Background(), "Open Log Folder"); err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if opened != cfg.Paths.LogDir {
		t.Fatalf("opened %q, want %q", opened, cfg.Paths.LogDir)
	}
	if err := e.RunCommand(context.Background(), "Nope"); !errors.Is(err, engine.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestReloadKeepsAppCommands(t *testing.T) {
	var out bytes.Buffer
	e := newEngine(t, testsupport.NewConfig(t), &out)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	noop := func(context.Context) error { return nil }
	if err := e.RegisterCommand("Save", noop, engine.Properties{App: "tk-multi-workfiles2"}); err != nil {
		t.Fatal(err)
	}
	if err := e.RunCommand(context.Background(), "Reload and Restart"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	var names []string
	for _, cmd := range e.Commands() {
		names = append(names, cmd.Name)
	}
	if diff := cmp.Diff([]string{"Open Log Folder", "Reload and Restart", "Save"}, names); diff != "" {
		t.Fatalf("commands after reload (-want +got):\n%s", diff)
	}
}

func TestRunStartupCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStartupCommands(
		config.StartupCommand{AppInstance: "tk-multi-workfiles2"},
		config.StartupCommand{AppInstance: "tk-multi-setframerange", Name: "Sync Frame Range"},
		config.StartupCommand{AppInstance: "tk-multi-setframerange", Name: "Missing"},
		config.StartupCommand{AppInstance: "tk-multi-publish2"},
	))
	var out bytes.Buffer
	e := newEngine(t, cfg, &out)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var ran []string
	record := func(name string) engine.CommandFunc {
		return func(context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}
	register := []struct {
		name string
		app  string
	}{
		{"File Open", "tk-multi-workfiles2"},
		{"File Save", "tk-multi-workfiles2"},
		{"Sync Frame Range", "tk-multi-setframerange"},
		{"Frame Report", "tk-multi-setframerange"},
	}
	for _, r := range register {
		if err := e.RegisterCommand(r.name, record(r.name), engine.Properties{App: r.app}); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.RunStartupCommands(context.Background()); err != nil {
		t.Fatalf("RunStartupCommands: %v", err)
	}
	if diff := cmp.Diff([]string{"File Open", "File Save", "Sync Frame Range"}, ran); diff != "" {
		t.Fatalf("startup order mismatch (-want +got):\n%s", diff)
	}
	console := out.String()
	if !strings.Contains(console, "known_commands='Sync Frame Range', 'Frame Report'") {
		t.Fatalf("expected known commands in warning, got:\n%s", console)
	}
	if !strings.Contains(console, "app_instance=tk-multi-publish2") {
		t.Fatalf("expected missing app warning, got:\n%s", console)
	}
}

func TestRunStartupCommandsStopsOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStartupCommands(config.StartupCommand{AppInstance: "app"}))
	var out bytes.Buffer
	e := newEngine(t, cfg, &out)
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	boom := errors.New("boom")
	calls := 0
	_ = e.RegisterCommand("first", func(context.Context) error { calls++; return boom }, engine.Properties{App: "app"})
	_ = e.RegisterCommand("second", func(context.Context) error { calls++; return nil }, engine.Properties{App: "app"})
	if err := e.RunStartupCommands(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
