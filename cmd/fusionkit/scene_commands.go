package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fusionkit/internal/config"
	"fusionkit/internal/host/compfile"
	"fusionkit/internal/sceneops"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "Open, save and inspect the current comp",
	}

	sceneCmd.AddCommand(newSceneCurrentCommand(ctx))
	sceneCmd.AddCommand(newSceneFileCommand(ctx, "open <path>", "Open a comp and make it current", sceneops.OpOpen, "open_file", true))
	sceneCmd.AddCommand(newSceneFileCommand(ctx, "save [path]", "Save the current comp", sceneops.OpSave, "", false))
	sceneCmd.AddCommand(newSceneFileCommand(ctx, "save-as <path>", "Save the current comp under a new name", sceneops.OpSaveAs, "save_file_as", true))
	sceneCmd.AddCommand(newSceneFileCommand(ctx, "reset [path]", "Save the current comp and report a clean state", sceneops.OpReset, "new_file", false))
	sceneCmd.AddCommand(newSceneNewCommand(ctx))
	sceneCmd.AddCommand(newSceneWatchCommand(ctx))

	return sceneCmd
}

func newSceneCurrentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current comp path",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := sceneops.New(ctx.sessionValue(), ctx.loggerValue())
			res, err := hook.Execute(cmd.Context(), sceneops.Request{Operation: sceneops.OpCurrentPath})
			if err != nil {
				return err
			}
			if res.Path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(untitled)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		},
	}
}

func newSceneFileCommand(ctx *commandContext, use, short string, op sceneops.Operation, parentAction string, pathRequired bool) *cobra.Command {
	args := cobra.MaximumNArgs(1)
	if pathRequired {
		args = cobra.ExactArgs(1)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			var path string
			if len(argv) == 1 {
				expanded, err := config.ExpandPath(argv[0])
				if err != nil {
					return err
				}
				path = expanded
			}
			hook := sceneops.New(ctx.sessionValue(), ctx.loggerValue())
			res, err := hook.Execute(cmd.Context(), sceneops.Request{
				Operation:    op,
				FilePath:     path,
				ParentAction: parentAction,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch op {
			case sceneops.OpOpen:
				fmt.Fprintf(out, "Opened %s\n", path)
			case sceneops.OpReset:
				fmt.Fprintf(out, "Reset: %s\n", yesNo(res.Reset))
			default:
				current, err := hook.Execute(cmd.Context(), sceneops.Request{Operation: sceneops.OpCurrentPath})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s\n", current.Path)
			}
			return nil
		},
	}
}

func newSceneNewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Replace the current comp with an untitled one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.sessionValue().Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Started untitled comp")
			return nil
		},
	}
}

func newSceneWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report changes made to the current comp file until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := sceneops.New(ctx.sessionValue(), ctx.loggerValue())
			res, err := hook.Execute(cmd.Context(), sceneops.Request{Operation: sceneops.OpCurrentPath})
			if err != nil {
				return err
			}
			if res.Path == "" {
				return fmt.Errorf("current comp is untitled; save it before watching")
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s\n", res.Path)
			return compfile.Watch(signalCtx, res.Path, func(ev compfile.Event) {
				fmt.Fprintf(out, "%s %s\n", ev.Op, ev.Path)
			})
		},
	}
}
