package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fusionkit/internal/frameops"
)

func newFramesCommand(ctx *commandContext) *cobra.Command {
	framesCmd := &cobra.Command{
		Use:   "frames",
		Short: "Read or set the current comp's frame range",
	}

	framesCmd.AddCommand(newFramesGetCommand(ctx))
	framesCmd.AddCommand(newFramesSetCommand(ctx))

	return framesCmd
}

func newFramesGetCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the global in and out frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			hook := frameops.New(ctx.sessionValue(), ctx.loggerValue())
			in, out, err := hook.GetFrameRange(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, map[string]int{"in": in, "out": out})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d-%d\n", in, out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the range as JSON")
	return cmd
}

func newFramesSetCommand(ctx *commandContext) *cobra.Command {
	var headIn, tailOut int

	cmd := &cobra.Command{
		Use:   "set <in> <out>",
		Short: "Set the global range and the render range",
		Long: "Set the global range to in..out. The render range defaults to the same frames;\n" +
			"use --head-in and --tail-out to include handles.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid in frame %q", args[0])
			}
			out, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid out frame %q", args[1])
			}
			head, tail := in, out
			if cmd.Flags().Changed("head-in") {
				head = headIn
			}
			if cmd.Flags().Changed("tail-out") {
				tail = tailOut
			}

			hook := frameops.New(ctx.sessionValue(), ctx.loggerValue())
			if err := hook.SetFrameRange(cmd.Context(), head, in, out, tail); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Frame range %d-%d (render %d-%d)\n", in, out, head, tail)
			return nil
		},
	}

	cmd.Flags().IntVar(&headIn, "head-in", 0, "First render frame (defaults to in)")
	cmd.Flags().IntVar(&tailOut, "tail-out", 0, "Last render frame (defaults to out)")
	return cmd
}
