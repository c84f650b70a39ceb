package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fusionkit/internal/engine"
	"fusionkit/internal/preflight"
)

func newEngineCommand(ctx *commandContext) *cobra.Command {
	engineCmd := &cobra.Command{
		Use:   "engine",
		Short: "Inspect the engine and run its commands",
	}

	engineCmd.AddCommand(newEngineInfoCommand(ctx))
	engineCmd.AddCommand(newEngineCommandsCommand(ctx))
	engineCmd.AddCommand(newEngineRunCommand(ctx))
	engineCmd.AddCommand(newEngineStartupCommand(ctx))

	return engineCmd
}

// startEngine builds and initializes an engine writing its console to stderr.
func startEngine(cmd *cobra.Command, ctx *commandContext) (*engine.Engine, error) {
	e := ctx.newEngine(cmd.ErrOrStderr())
	if err := e.Init(cmd.Context()); err != nil {
		return nil, err
	}
	return e, nil
}

type engineInfo struct {
	Host      engine.HostInfo    `json:"host"`
	MenuName  string             `json:"menu_name"`
	SessionID string             `json:"session_id"`
	Preflight []preflight.Result `json:"preflight"`
}

func newEngineInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show host information and preflight results",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := startEngine(cmd, ctx)
			if err != nil {
				return err
			}
			defer e.Destroy()

			info := engineInfo{
				Host:      e.HostInfo(),
				MenuName:  e.MenuName(),
				SessionID: e.SessionID(),
				Preflight: e.Preflight(),
			}
			if jsonOut {
				return writeJSON(cmd, info)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Host:       %s %s\n", info.Host.Name, info.Host.Version)
			fmt.Fprintf(out, "Menu:       %s\n", info.MenuName)
			fmt.Fprintf(out, "Session:    %s\n", info.SessionID)
			fmt.Fprintln(out, "Preflight:")
			for _, r := range info.Preflight {
				state := checkPassed
				switch {
				case !r.Passed && r.Optional:
					state = checkSkipped
				case !r.Passed:
					state = checkFailed
				}
				fmt.Fprintln(out, renderCheckLine(r.Name, state, r.Detail, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newEngineCommandsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List registered menu commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := startEngine(cmd, ctx)
			if err != nil {
				return err
			}
			defer e.Destroy()

			commands := e.Commands()
			if jsonOut {
				return writeJSON(cmd, commands)
			}
			rows := make([][]string, 0, len(commands))
			for _, c := range commands {
				app := c.Properties.App
				if app == "" {
					app = "engine"
				}
				rows = append(rows, []string{c.Name, app, c.Properties.Type, c.Properties.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Command", "App", "Type", "Description"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newEngineRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <command>",
		Short: "Run a registered menu command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := startEngine(cmd, ctx)
			if err != nil {
				return err
			}
			defer e.Destroy()
			return e.RunCommand(cmd.Context(), args[0])
		},
	}
}

func newEngineStartupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "startup",
		Short: "Run the commands listed in [[engine.run_at_startup]]",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := startEngine(cmd, ctx)
			if err != nil {
				return err
			}
			defer e.Destroy()
			return e.RunStartupCommands(cmd.Context())
		},
	}
}
