package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/graph"
	"github.com/agentic-research/treesearch/internal/ingest"
	"github.com/agentic-research/treesearch/internal/layout"
	"github.com/agentic-research/treesearch/internal/logging"
	"github.com/agentic-research/treesearch/internal/render"
)

func newLayoutCommand(root *rootOptions) *cobra.Command {
	var (
		jsonOut bool
		paths   bool
		depth   int
		fanout  int
	)

	cmd := &cobra.Command{
		Use:   "layout ROOT",
		Short: "Build a snapshot of ROOT and print its node positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("depth") {
				cfg.MaxDepth = depth
			}
			if cmd.Flags().Changed("fanout") {
				cfg.MaxFanout = fanout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			log := logging.L()
			snap, err := ingest.Build(cmd.Context(), fs.OS(fs.WithLogger(log)), path, ingest.Options{
				MaxDepth:  cfg.MaxDepth,
				MaxFanout: cfg.MaxFanout,
				Logger:    log,
			})
			if err != nil {
				return err
			}
			layout.Layout(snap.Root)

			out := cmd.OutOrStdout()
			if paths {
				for _, p := range snap.Paths() {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			if jsonOut {
				fmt.Fprintln(out, render.EncodeScene(render.Scene(snap, nil)))
				return nil
			}
			printTree(out, snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the scene document as JSON")
	cmd.Flags().BoolVar(&paths, "paths", false, "Print only the snapshot paths, sorted")
	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum snapshot depth")
	cmd.Flags().IntVar(&fanout, "fanout", 0, "Maximum children kept per directory")
	return cmd
}

func printTree(w io.Writer, snap *graph.Snapshot) {
	snap.Walk(func(n *graph.Node) bool {
		name := n.Name
		if n.IsDir {
			name += "/"
		}
		start, end := layout.Band(n)
		fmt.Fprintf(w, "%s%s  (x=%d, y=%d, band=%d..%d)\n", strings.Repeat("  ", n.Level), name, n.X, n.Y, start, end)
		return true
	})
	b := layout.Bounds(snap.Root)
	fmt.Fprintf(w, "\n%d nodes, depth %d, canvas %dx%d\n", snap.Len(), snap.MaxLevel(), b.Width(), b.Height())
}
