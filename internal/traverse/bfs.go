package traverse

import (
	"context"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/graph"
)

// BFS searches snap level by level from its root.
//
// The loop stops before dequeuing when a find-first run already has a
// match. Queued paths missing from the lookup table are skipped. On context
// cancellation BFS returns the state gathered so far with ctx.Err().
func BFS(ctx context.Context, snap *graph.Snapshot, pattern string, findAll bool, opts Options) (*State, error) {
	w := newWalker(snap, pattern, findAll, opts, api.BFS)
	if snap == nil || snap.Root == nil {
		return w.state, nil
	}

	queue := []string{snap.Root.Path}
	for len(queue) > 0 {
		if w.done() {
			break
		}
		if err := ctx.Err(); err != nil {
			return w.state, err
		}

		path := queue[0]
		queue = queue[1:]

		n, ok := snap.Lookup(path)
		if !ok {
			continue
		}
		w.visit(n)
		if n.IsDir {
			for _, c := range w.children(n) {
				queue = append(queue, c.Path)
			}
		}

		if err := w.pace(ctx); err != nil {
			return w.state, err
		}
	}
	return w.state, nil
}
