package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/treesearch/internal/config"
	"github.com/agentic-research/treesearch/internal/logging"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	// cfg is resolved in PersistentPreRunE: defaults, then the config file,
	// then the log flags.
	cfg config.Config
}

// NewRootCommand assembles the treesearch command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{cfg: config.Default()}

	root := &cobra.Command{
		Use:   "treesearch",
		Short: "Breadth-first and depth-first file search over a bounded directory snapshot",
		Long: `treesearch builds a bounded snapshot of a directory tree (depth 5 and
10 children per directory by default), lays it out as a node-link diagram
and searches it for file names matching a "*" wildcard pattern with BFS or DFS.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to an HCL or YAML config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(
		newSearchCommand(opts),
		newLayoutCommand(opts),
		newHistoryCommand(opts),
		newMCPCommand(opts),
	)
	return root
}

func (o *rootOptions) resolve(cmd *cobra.Command) error {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		o.cfg = cfg
	}
	if cmd.Flags().Changed("log-level") {
		o.cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		o.cfg.LogFormat = o.logFormat
	}
	return logging.Init(logging.Config{Level: o.cfg.LogLevel, Format: o.cfg.LogFormat})
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
