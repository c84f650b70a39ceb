package main

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fusionkit/internal/sequence"
)

type resolveResult struct {
	Path     string          `json:"path"`
	Sequence bool            `json:"sequence"`
	Range    *sequence.Range `json:"range,omitempty"`
	Frames   int             `json:"frames,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Find the frame range of image sequences",
		Long: "Resolve each path to the first and last frame of the sequence it belongs to.\n" +
			"Paths may name a frame (shot.1001.exr) or a placeholder (shot.####.exr, shot.%04d.exr).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := ctx.resolver()
			if err != nil {
				return err
			}

			results := make([]resolveResult, len(args))
			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.NumCPU())
			for i, path := range args {
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					rng, ok, err := resolver.Resolve(path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results[i] = resolveResult{Path: path, Sequence: ok}
					if ok {
						results[i].Range = &rng
						results[i].Frames = rng.Len()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.Range == nil {
					rows = append(rows, []string{r.Path, "-", "-", "-"})
					continue
				}
				rows = append(rows, []string{
					r.Path,
					strconv.Itoa(r.Range.Min),
					strconv.Itoa(r.Range.Max),
					strconv.Itoa(r.Frames),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Path", "First", "Last", "Frames"}, rows, 1, 2, 3))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}
