package traverse

import (
	"context"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/graph"
)

// DFS searches snap in pre-order from its root.
//
// The walk keeps an explicit stack of directory frames instead of
// recursing, and an explicit stop flag instead of propagating a boolean up
// the call chain. A find-first run raises the flag on its first match and
// abandons every pending sibling; the visitation order is identical to the
// recursive pre-order walk.
func DFS(ctx context.Context, snap *graph.Snapshot, pattern string, findAll bool, opts Options) (*State, error) {
	w := newWalker(snap, pattern, findAll, opts, api.DFS)
	if snap == nil || snap.Root == nil {
		return w.state, nil
	}

	d := &dfsWalk{walker: w}
	if _, ok := snap.Lookup(snap.Root.Path); !ok {
		return w.state, nil
	}
	if err := d.enter(ctx, snap.Root); err != nil {
		return w.state, err
	}

	for len(d.stack) > 0 && !d.stop {
		top := &d.stack[len(d.stack)-1]
		if top.next >= len(top.children) {
			d.stack = d.stack[:len(d.stack)-1]
			continue
		}
		child := top.children[top.next]
		top.next++

		if _, ok := snap.Lookup(child.Path); !ok {
			continue
		}
		if err := d.enter(ctx, child); err != nil {
			return w.state, err
		}
	}
	return w.state, nil
}

type dfsFrame struct {
	children []*graph.Node
	next     int
}

type dfsWalk struct {
	*walker
	stack []dfsFrame
	stop  bool
}

// enter visits n, raising the stop flag when a find-first run is satisfied
// and pushing a frame for n's children when it is a directory.
func (d *dfsWalk) enter(ctx context.Context, n *graph.Node) error {
	if d.done() {
		d.stop = true
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	matched := d.visit(n)
	if matched && !d.findAll {
		d.stop = true
	}
	if n.IsDir && !d.stop {
		d.stack = append(d.stack, dfsFrame{children: d.children(n)})
	}
	return d.pace(ctx)
}
