package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/history"
	"github.com/agentic-research/treesearch/internal/logging"
	"github.com/agentic-research/treesearch/internal/render"
	"github.com/agentic-research/treesearch/internal/session"
)

type searchOptions struct {
	*rootOptions

	pattern  string
	findAll  bool
	algo     string
	delay    string
	depth    int
	fanout   int
	record   string
	jsonOut  bool
	progress bool
	relist   bool
	noColor  bool

	recordPath string
}

func newSearchCommand(root *rootOptions) *cobra.Command {
	o := &searchOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "search ROOT -p PATTERN",
		Short: "Search a directory snapshot for matching file names",
		Long: `Build a bounded snapshot of ROOT and search it with BFS or DFS.

PATTERN is either an exact file name or contains "*" wildcards; matching is
case-insensitive and covers the whole name. By default the search stops at
the first match; --all collects every match.`,
		Example: `  treesearch search ~/src -p "*.go" --algo dfs --all
  treesearch search . -p README.md --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.pattern, "pattern", "p", "", "File name or wildcard pattern to search for")
	f.BoolVarP(&o.findAll, "all", "a", false, "Collect every match instead of stopping at the first")
	f.StringVar(&o.algo, "algo", "", "Traversal algorithm: bfs or dfs")
	f.StringVar(&o.delay, "delay", "", "Pause after each visited node, e.g. 50ms")
	f.IntVar(&o.depth, "depth", 0, "Maximum snapshot depth")
	f.IntVar(&o.fanout, "fanout", 0, "Maximum children kept per directory")
	f.StringVar(&o.record, "record", "", "Record the run in this history database")
	f.BoolVar(&o.jsonOut, "json", false, "Print the result and the positioned scene as JSON")
	f.BoolVar(&o.progress, "progress", false, "Print status lines for visited nodes to stderr; lines are skipped when the terminal falls behind")
	f.BoolVar(&o.relist, "relist", true, "Re-list directories from disk during traversal, bounded by the snapshot")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

// request merges config file values with the flags that were set.
func (o *searchOptions) request(cmd *cobra.Command, root string) (api.Request, error) {
	cfg := o.cfg
	f := cmd.Flags()
	if f.Changed("all") {
		cfg.FindAll = o.findAll
	}
	if f.Changed("algo") {
		algo, err := api.ParseAlgorithm(o.algo)
		if err != nil {
			return api.Request{}, err
		}
		cfg.Algorithm = algo
	}
	if f.Changed("delay") {
		d, err := time.ParseDuration(o.delay)
		if err != nil {
			return api.Request{}, fmt.Errorf("delay: %w", err)
		}
		cfg.Delay = d
	}
	if f.Changed("depth") {
		cfg.MaxDepth = o.depth
	}
	if f.Changed("fanout") {
		cfg.MaxFanout = o.fanout
	}
	if f.Changed("record") {
		cfg.Record = o.record
	}
	if err := cfg.Validate(); err != nil {
		return api.Request{}, err
	}
	o.recordPath = cfg.Record
	return cfg.Request(root, o.pattern), nil
}

func (o *searchOptions) run(cmd *cobra.Command, root string) error {
	req, err := o.request(cmd, root)
	if err != nil {
		return err
	}

	log := logging.L()
	lister := fs.OS(fs.WithLogger(log))
	sess := session.New(lister, session.WithLogger(log), session.WithRelisting(o.relist))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go watchInterrupt(ctx, cancel, sigs, sess, log)

	var onProgress func(string)
	if o.progress {
		errOut := cmd.ErrOrStderr()
		onProgress = func(msg string) { fmt.Fprintln(errOut, msg) }
	}

	res, runErr := sess.SearchWithProgress(ctx, req, onProgress)
	if res == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	out := cmd.OutOrStdout()
	if o.jsonOut {
		doc := render.Document{
			"result": render.ResultDocument(res),
			"scene":  render.Scene(sess.Snapshot(), render.ResultMarks(res)),
		}
		fmt.Fprintln(out, render.EncodeScene(doc))
	} else {
		color := !o.noColor && render.ColorEnabled(out)
		if err := render.Report(out, res, render.ReportOptions{Color: color}); err != nil {
			return err
		}
	}

	if o.recordPath != "" {
		if err := recordRun(cmd.ErrOrStderr(), o.recordPath, sess.LastResult(), log); err != nil {
			return err
		}
	}
	return runErr
}

// watchInterrupt stops the session's run when a signal arrives on sigs. ctx
// is cancelled too so an interrupt during the snapshot build is not lost. It
// returns once ctx is done.
func watchInterrupt(ctx context.Context, cancel context.CancelFunc, sigs <-chan os.Signal, sess *session.Session, log *zap.Logger) {
	select {
	case sig := <-sigs:
		log.Info("interrupted, stopping search", zap.Stringer("signal", sig))
		sess.Cancel()
		cancel()
	case <-ctx.Done():
	}
}

func recordRun(w io.Writer, dbPath string, res *api.Result, log *zap.Logger) error {
	rec, err := history.Open(dbPath, log)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = rec.Close() }()

	id, err := rec.Record(res)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	fmt.Fprintf(w, "Recorded run %s in %s\n", id, dbPath)
	return nil
}
