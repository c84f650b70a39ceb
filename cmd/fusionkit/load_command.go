package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"fusionkit/internal/host"
	"fusionkit/internal/loader"
	"fusionkit/internal/publish"
)

func newLoadCommand(ctx *commandContext) *cobra.Command {
	var action string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "load <publish-id>...",
		Short: "Run a loader action for publishes against the current comp",
		Long: "Load each publish into the current comp. The action must be one the publish's\n" +
			"type offers in [loader.actions]; read_node creates a Loader tool.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			resolver, err := ctx.resolver()
			if err != nil {
				return err
			}
			l := loader.New(ctx.sessionValue(), resolver, cfg.Loader.Extensions, ctx.loggerValue())

			var requests []loader.ActionRequest
			err = ctx.withStore(func(store *publish.Store) error {
				for _, arg := range args {
					id, err := parsePublishID(arg)
					if err != nil {
						return err
					}
					file, err := store.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					offered := l.GenerateActions(*file, cfg.ActionsFor(file.PublishedFileType), "main")
					idx := slices.IndexFunc(offered, func(a loader.Action) bool { return a.Name == action })
					if idx < 0 {
						return fmt.Errorf("publish %d (%s) does not offer action %q", file.ID, file.PublishedFileType, action)
					}
					requests = append(requests, loader.ActionRequest{
						Name:    action,
						Params:  offered[idx].Params,
						Publish: file,
					})
				}
				return nil
			})
			if err != nil {
				return err
			}

			tools, err := l.ExecuteMultipleActions(cmd.Context(), requests)
			if jsonOut {
				if jerr := writeJSON(cmd, tools); jerr != nil {
					return jerr
				}
			} else if len(tools) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Clip", "Global In", "Global Out"}, toolRows(tools), 2, 3))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", loader.ActionReadNode, "Loader action to run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output created tools as JSON")
	return cmd
}

func toolRows(tools []host.Tool) [][]string {
	rows := make([][]string, 0, len(tools))
	for _, tool := range tools {
		in, out := "-", "-"
		if tool.Frames != nil {
			in = fmt.Sprint(tool.Frames.In)
			out = fmt.Sprint(tool.Frames.Out)
		}
		rows = append(rows, []string{tool.Name, tool.Clip, in, out})
	}
	return rows
}
