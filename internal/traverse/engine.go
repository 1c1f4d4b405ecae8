// Package traverse implements breadth-first and depth-first file search
// over a tree snapshot. Both engines treat the snapshot's lookup table as
// the traversal boundary, visit children directories first then by
// case-insensitive name, and stop at the first match unless asked to
// collect all of them.
package traverse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/graph"
)

// ProgressFunc receives one status message per visited node. It must not
// block the engine.
type ProgressFunc func(msg string)

// Options tunes a traversal run. The zero value is a silent run without
// pacing over the snapshot's own child lists.
type Options struct {
	// Progress is called once per visited node.
	Progress ProgressFunc
	// Delay pauses after each visited node, for animation.
	Delay time.Duration
	// Lister, when set, re-lists each directory from the live filesystem
	// and keeps only children present in the snapshot.
	Lister fs.Lister
	Logger *zap.Logger
}

// Run dispatches to BFS or DFS.
func Run(ctx context.Context, algo api.Algorithm, snap *graph.Snapshot, pattern string, findAll bool, opts Options) (*State, error) {
	switch algo {
	case api.BFS:
		return BFS(ctx, snap, pattern, findAll, opts)
	case api.DFS:
		return DFS(ctx, snap, pattern, findAll, opts)
	}
	return NewState(snap), fmt.Errorf("%w: %q", api.ErrInvalidAlgorithm, string(algo))
}

// walker holds what both engines share for one run.
type walker struct {
	snap    *graph.Snapshot
	state   *State
	pattern *Pattern
	findAll bool
	opts    Options
	tag     string
}

func newWalker(snap *graph.Snapshot, pattern string, findAll bool, opts Options, algo api.Algorithm) *walker {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &walker{
		snap:    snap,
		state:   NewState(snap),
		pattern: Compile(pattern),
		findAll: findAll,
		opts:    opts,
		tag:     algo.Short(),
	}
}

// done reports whether a find-first run already has its match.
func (w *walker) done() bool {
	return !w.findAll && w.state.FoundCount() > 0
}

// visit records n and reports whether it is a matching file.
func (w *walker) visit(n *graph.Node) bool {
	w.state.markVisited(n)
	if w.opts.Progress != nil {
		w.opts.Progress(fmt.Sprintf("Searching (%s): %s", w.tag, n.Name))
	}
	if n.IsDir || !w.pattern.Match(n.Name) {
		return false
	}
	w.state.markFound(n)
	w.opts.Logger.Debug("match", zap.String("algo", w.tag), zap.String("path", n.Path))
	return true
}

// children returns n's children that lie inside the snapshot boundary, in
// canonical order.
func (w *walker) children(n *graph.Node) []*graph.Node {
	if w.opts.Lister == nil {
		out := make([]*graph.Node, 0, len(n.Children))
		for _, c := range n.Children {
			if node, ok := w.snap.Lookup(c.Path); ok {
				out = append(out, node)
			}
		}
		return out
	}

	entries := w.opts.Lister.ListChildren(n.Path)
	fs.SortEntries(entries)
	out := make([]*graph.Node, 0, len(entries))
	for _, e := range entries {
		node, ok := w.snap.Lookup(e.Path)
		if !ok {
			continue
		}
		out = append(out, node)
	}
	return out
}

// pace sleeps for the configured delay unless ctx ends first.
func (w *walker) pace(ctx context.Context) error {
	if w.opts.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(w.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
