package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fusionkit/internal/logging"
)

// Command types understood by the menu builder.
const (
	CommandTypeMenu        = "menu"
	CommandTypeContextMenu = "context_menu"
)

// ErrUnknownCommand is returned by RunCommand for names that are not registered.
var ErrUnknownCommand = errors.New("unknown command")

// CommandFunc is the callback behind a menu entry.
type CommandFunc func(ctx context.Context) error

// Properties describe how a command is presented.
type Properties struct {
	ShortName   string `json:"short_name,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	// App is the app instance that registered the command. Engine built-ins leave it empty.
	App string `json:"app,omitempty"`
}

// Command is a registered menu entry.
type Command struct {
	Name       string      `json:"name"`
	Properties Properties  `json:"properties"`
	Callback   CommandFunc `json:"-"`
}

// RegisterCommand adds a command. Registering an existing name replaces it.
func (e *Engine) RegisterCommand(name string, fn CommandFunc, props Properties) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("command name is required")
	}
	if fn == nil {
		return fmt.Errorf("command %q: callback is required", name)
	}
	if props.Type == "" {
		props.Type = CommandTypeMenu
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.commands[name]; exists {
		e.logger.Debug("replacing command", logging.String("command", name))
	} else {
		e.order = append(e.order, name)
	}
	e.commands[name] = &Command{Name: name, Properties: props, Callback: fn}
	return nil
}

// Commands returns the registered commands in registration order.
func (e *Engine) Commands() []Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Command, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, *e.commands[name])
	}
	return out
}

// RunCommand invokes the command registered under name.
func (e *Engine) RunCommand(ctx context.Context, name string) error {
	e.mu.Lock()
	cmd, ok := e.commands[name]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return e.invoke(ctx, cmd)
}

func (e *Engine) invoke(ctx context.Context, cmd *Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cmd.Callback(ctx); err != nil {
		return fmt.Errorf("command %q: %w", cmd.Name, err)
	}
	return nil
}

// RunStartupCommands runs the run_at_startup entries from the engine
// configuration. An entry without a name runs every command of its app.
// Entries naming an app or command that is not registered are logged and
// skipped. The first failing command stops the run.
func (e *Engine) RunStartupCommands(ctx context.Context) error {
	byApp := make(map[string][]*Command)
	e.mu.Lock()
	for _, name := range e.order {
		cmd := e.commands[name]
		if app := cmd.Properties.App; app != "" {
			byApp[app] = append(byApp[app], cmd)
		}
	}
	e.mu.Unlock()

	for _, entry := range e.cfg.Engine.RunAtStartup {
		cmds, ok := byApp[entry.AppInstance]
		if !ok {
			logging.WarnWithContext(e.logger, "run_at_startup requests an app that is not installed", "startup_command",
				logging.String("app_instance", entry.AppInstance),
				logging.String(logging.FieldErrorHint, "check the app instance name in [[engine.run_at_startup]]"),
			)
			continue
		}
		if entry.Name == "" {
			for _, cmd := range cmds {
				e.logger.Debug("startup running command",
					logging.String("app_instance", entry.AppInstance),
					logging.String("command", cmd.Name),
				)
				if err := e.invoke(ctx, cmd); err != nil {
					return err
				}
			}
			continue
		}

		cmd := findCommand(cmds, entry.Name)
		if cmd == nil {
			logging.WarnWithContext(e.logger, "run_at_startup requests an unknown command", "startup_command",
				logging.String("app_instance", entry.AppInstance),
				logging.String("command", entry.Name),
				logging.String("known_commands", knownCommands(cmds)),
			)
			continue
		}
		e.logger.Debug("startup running command",
			logging.String("app_instance", entry.AppInstance),
			logging.String("command", cmd.Name),
		)
		if err := e.invoke(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func findCommand(cmds []*Command, name string) *Command {
	for _, cmd := range cmds {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func knownCommands(cmds []*Command) string {
	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		names = append(names, "'"+cmd.Name+"'")
	}
	return strings.Join(names, ", ")
}

func (e *Engine) registerBuiltins() {
	logDir := e.cfg.Paths.LogDir
	_ = e.RegisterCommand("Open Log Folder", func(context.Context) error {
		e.logger.Info("log folder is located in " + logDir)
		if err := e.openDir(logDir); err != nil {
			return fmt.Errorf("open log folder: %w", err)
		}
		return nil
	}, Properties{
		ShortName:   "open_log_folder",
		Type:        CommandTypeContextMenu,
		Description: "Opens the folder where log files are being stored.",
	})
	_ = e.RegisterCommand("Reload and Restart", func(ctx context.Context) error {
		return e.restart(ctx)
	}, Properties{
		ShortName: "restart",
		Type:      CommandTypeContextMenu,
	})
}
