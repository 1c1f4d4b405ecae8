package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/treesearch/internal/history"
	"github.com/agentic-research/treesearch/internal/logging"
)

func newHistoryCommand(_ *rootOptions) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history DB",
		Short: "List searches recorded with --record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := history.Open(args[0], logging.L())
			if err != nil {
				return err
			}
			defer func() { _ = rec.Close() }()

			out := cmd.OutOrStdout()
			if runID != "" {
				run, err := rec.Get(runID)
				if err != nil {
					return err
				}
				visits, err := rec.Visits(runID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s %q in %s\n", run.ID, run.Algorithm.Short(), run.Pattern, run.Root)
				for _, v := range visits {
					mark := " "
					if v.Found {
						mark = "*"
					}
					fmt.Fprintf(out, "%4d %s %s\n", v.Seq, mark, v.Path)
				}
				return nil
			}

			runs, err := rec.Runs(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tALGO\tPATTERN\tROOT\tVISITED\tFOUND\tTIME")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
					r.ID, r.StartedAt.Format(time.DateTime), r.Algorithm.Short(), r.Pattern, r.Root,
					r.Visited, r.TotalNodes, r.Found, r.Duration.Round(time.Microsecond))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 = all)")
	cmd.Flags().StringVar(&runID, "run", "", "Print the traversal order of one run")
	return cmd
}
