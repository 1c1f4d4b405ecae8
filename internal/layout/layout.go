// Package layout assigns non-overlapping 2D coordinates to a snapshot tree
// for a top-down node-link drawing.
//
// Widths are aggregated bottom-up, then each node is centered in a
// horizontal band equal to its subtree width while its children consume
// consecutive sub-bands one level lower. Sibling bands never overlap, so
// neither do the subtrees drawn inside them.
package layout

import (
	"github.com/agentic-research/treesearch/internal/graph"
)

const (
	NodeWidth      = 120
	NodeHeight     = 60
	SiblingSpacing = 30
	LevelSpacing   = 80
)

// Rect is an axis-aligned bounding box in layout coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

func (r Rect) Width() int  { return r.MaxX - r.MinX }
func (r Rect) Height() int { return r.MaxY - r.MinY }

// Layout computes SubtreeWidth, X and Y for every node under root, placing
// root's band at x = 0, y = 0.
func Layout(root *graph.Node) {
	if root == nil {
		return
	}
	SubtreeWidths(root)
	Position(root, 0, 0)
}

// SubtreeWidths runs the post-order width pass. A leaf needs
// NodeWidth+SiblingSpacing; an internal node needs the sum of its
// children's widths minus the trailing spacing of the last child, at least
// NodeWidth, plus its own trailing spacing.
func SubtreeWidths(root *graph.Node) int {
	if root == nil {
		return 0
	}
	// Reversed pre-order visits every child before its parent.
	order := preOrder(root)
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		if n.IsLeaf() {
			n.SubtreeWidth = NodeWidth + SiblingSpacing
			continue
		}
		total := 0
		for _, c := range n.Children {
			total += c.SubtreeWidth
		}
		total -= SiblingSpacing
		n.SubtreeWidth = max(NodeWidth, total) + SiblingSpacing
	}
	return root.SubtreeWidth
}

// Position runs the pre-order placement pass. SubtreeWidths must have run.
func Position(root *graph.Node, startX, startY int) {
	type band struct {
		node   *graph.Node
		startX int
		startY int
	}
	stack := []band{{root, startX, startY}}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := b.node
		n.X = b.startX + n.SubtreeWidth/2 - SiblingSpacing/2
		n.Y = b.startY

		childX := b.startX
		childY := b.startY + LevelSpacing
		bands := make([]band, len(n.Children))
		for i, c := range n.Children {
			bands[i] = band{c, childX, childY}
			childX += c.SubtreeWidth
		}
		for i := len(bands) - 1; i >= 0; i-- {
			stack = append(stack, bands[i])
		}
	}
}

// Band returns the horizontal band [start, end) a positioned node owns.
func Band(n *graph.Node) (start, end int) {
	start = n.X - n.SubtreeWidth/2 + SiblingSpacing/2
	return start, start + n.SubtreeWidth
}

// Bounds returns the box enclosing every drawn node under root.
func Bounds(root *graph.Node) Rect {
	if root == nil {
		return Rect{}
	}
	r := Rect{
		MinX: root.X - NodeWidth/2,
		MaxX: root.X + NodeWidth/2,
		MinY: root.Y - NodeHeight/2,
		MaxY: root.Y + NodeHeight/2,
	}
	for _, n := range preOrder(root) {
		r.MinX = min(r.MinX, n.X-NodeWidth/2)
		r.MaxX = max(r.MaxX, n.X+NodeWidth/2)
		r.MinY = min(r.MinY, n.Y-NodeHeight/2)
		r.MaxY = max(r.MaxY, n.Y+NodeHeight/2)
	}
	return r
}

func preOrder(root *graph.Node) []*graph.Node {
	var out []*graph.Node
	stack := []*graph.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}
