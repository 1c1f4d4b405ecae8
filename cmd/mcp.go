package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/config"
	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/logging"
	"github.com/agentic-research/treesearch/internal/render"
	"github.com/agentic-research/treesearch/internal/session"
)

const searchToolName = "search_tree"

func newMCPCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search_tree tool over MCP stdio",
		Long: `Run an MCP server on stdin/stdout exposing one tool, search_tree, which
builds a bounded snapshot of a directory and searches it with BFS or DFS.
Logs go to stderr so they never corrupt the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.L()
			s := newMCPServer(fs.OS(fs.WithLogger(log)), root.cfg)
			log.Info("mcp server listening on stdio")
			return server.ServeStdio(s)
		},
	}
}

func newMCPServer(lister fs.Lister, cfg config.Config) *server.MCPServer {
	s := server.NewMCPServer("treesearch", "0.1.0", server.WithToolCapabilities(false))
	s.AddTool(searchTool(), searchTreeHandler(lister, cfg))
	return s
}

func searchTool() mcp.Tool {
	return mcp.NewTool(searchToolName,
		mcp.WithDescription("Search a bounded snapshot of a directory tree for file names matching an exact name or a '*' wildcard pattern. Returns the traversal order, the visited set and the matches as JSON."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Absolute path of the directory to search"),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Exact file name or pattern with '*' wildcards, matched case-insensitively against the whole name"),
		),
		mcp.WithString("algorithm",
			mcp.Description("Traversal order"),
			mcp.Enum("bfs", "dfs"),
		),
		mcp.WithBoolean("find_all",
			mcp.Description("Collect every match instead of stopping at the first"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Maximum snapshot depth"),
		),
		mcp.WithNumber("max_fanout",
			mcp.Description("Maximum children kept per directory"),
		),
	)
}

// searchTreeHandler runs one search per call. Each call gets its own session
// so concurrent tool calls never see ErrBusy.
func searchTreeHandler(lister fs.Lister, cfg config.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		root, err := req.RequireString("root")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		pattern, err := req.RequireString("pattern")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		algo, err := api.ParseAlgorithm(req.GetString("algorithm", string(cfg.Algorithm)))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c := cfg
		c.Algorithm = algo
		c.FindAll = req.GetBool("find_all", cfg.FindAll)
		c.MaxDepth = req.GetInt("max_depth", cfg.MaxDepth)
		c.MaxFanout = req.GetInt("max_fanout", cfg.MaxFanout)
		// Pacing is for animation only; tool calls always run at full speed.
		c.Delay = 0
		if err := c.Validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		log := logging.L()
		sess := session.New(lister, session.WithLogger(log))
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		res, err := sess.Search(ctx, c.Request(root, pattern))
		if err != nil && (res == nil || !errors.Is(err, context.DeadlineExceeded)) {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		doc := render.ResultDocument(res)
		if err != nil {
			doc["partial"] = true
		}
		return mcp.NewToolResultText(oj.JSON(doc, &oj.Options{Sort: true})), nil
	}
}
