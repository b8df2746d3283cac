package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terraview/internal/assets"
)

var batchCmd = &cobra.Command{
	Use:   "batch <model>...",
	Short: "Inspect several models concurrently",
	Long:  "Inspect each model and print one summary line per file, in argument order. Failures are reported per file.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

// batchResult is one row of batch output.
type batchResult struct {
	File  string `json:"file"`
	Info  *Info  `json:"info,omitempty"`
	Error string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	fetcher := assets.NewFetcher(assets.Options{Cache: true, UserAgent: "terraview-modelinfo"})
	results := make([]batchResult, len(args))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(runtime.NumCPU())
	for i, file := range args {
		g.Go(func() error {
			results[i].File = file
			req, err := buildRequest(file, "", "")
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			info, err := inspect(ctx, fetcher, req, fovFlag)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Info = &info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonFlag {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	failed := printBatch(cmd.OutOrStdout(), results)
	if failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(results))
	}
	return nil
}

// printBatch writes one line per result and returns the failure count.
func printBatch(w io.Writer, results []batchResult) int {
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Fprintf(w, "%s: FAILED: %s\n", r.File, r.Error)
			continue
		}
		kind := "object"
		if r.Info.Terrain {
			kind = "terrain"
		}
		fmt.Fprintf(w, "%s: %s %s, %d triangles, %d materials, %s\n",
			r.File, r.Info.Format, formatFileSize(int64(r.Info.Size)),
			r.Info.Triangles, r.Info.Materials, kind)
	}
	return failed
}
