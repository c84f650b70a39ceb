package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fusionkit/internal/config"
	"fusionkit/internal/publish"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Manage the published file registry",
	}

	publishCmd.AddCommand(newPublishAddCommand(ctx))
	publishCmd.AddCommand(newPublishListCommand(ctx))
	publishCmd.AddCommand(newPublishShowCommand(ctx))
	publishCmd.AddCommand(newPublishRemoveCommand(ctx))

	return publishCmd
}

func newPublishAddCommand(ctx *commandContext) *cobra.Command {
	var file publish.File
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a published file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file.Path = path
			return ctx.withStore(func(store *publish.Store) error {
				added, err := store.Add(cmd.Context(), file)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, added)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added publish %d (%s)\n", added.ID, added.Code)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file.PublishedFileType, "type", "t", "", "Published file type (e.g. \"Rendered Image\")")
	cmd.Flags().StringVar(&file.Code, "code", "", "Publish name (defaults to the file name)")
	cmd.Flags().IntVar(&file.VersionNumber, "version", 1, "Version number")
	cmd.Flags().StringVar(&file.Entity, "entity", "", "Entity the publish belongs to (e.g. \"Shot sh010\")")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the record as JSON")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newPublishListCommand(ctx *commandContext) *cobra.Command {
	var filter publish.Filter
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List published files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *publish.Store) error {
				files, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOut {
					if files == nil {
						files = []*publish.File{}
					}
					return writeJSON(cmd, files)
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintln(out, "No publishes found")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Code", "Type", "Version", "Entity", "Path"},
					publishRows(files),
					0, 3,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter.PublishedFileType, "type", "t", "", "Only list publishes of this type")
	cmd.Flags().StringVar(&filter.Entity, "entity", "", "Only list publishes of this entity")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}

func publishRows(files []*publish.File) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.Code,
			f.PublishedFileType,
			fmt.Sprintf("v%03d", f.VersionNumber),
			f.Entity,
			f.Path,
		})
	}
	return rows
}

func newPublishShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a published file and the loader actions it offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePublishID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *publish.Store) error {
				file, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, file)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %d\n", file.ID)
				fmt.Fprintf(out, "Code:     %s\n", file.Code)
				fmt.Fprintf(out, "Type:     %s\n", file.PublishedFileType)
				fmt.Fprintf(out, "Version:  %d\n", file.VersionNumber)
				if file.Entity != "" {
					fmt.Fprintf(out, "Entity:   %s\n", file.Entity)
				}
				fmt.Fprintf(out, "Path:     %s\n", file.Path)
				fmt.Fprintf(out, "Created:  %s\n", file.CreatedAt.Local().Format(time.DateTime))
				actions := ctx.configValue().ActionsFor(file.PublishedFileType)
				if len(actions) > 0 {
					fmt.Fprintf(out, "Actions:  %s\n", strings.Join(actions, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the record as JSON")
	return cmd
}

func newPublishRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove published files from the registry",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parsePublishID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(store *publish.Store) error {
				for _, id := range ids {
					if err := store.Remove(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed publish %d\n", id)
				}
				return nil
			})
		},
	}
}

func parsePublishID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid publish id %q", raw)
	}
	return id, nil
}
