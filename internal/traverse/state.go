package traverse

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/treesearch/internal/graph"
)

// State is the per-run traversal record: the visited and found sets as
// roaring bitmaps over snapshot node IDs, plus the visitation order.
// Sets only grow during a run; found is always a subset of visited.
type State struct {
	snap    *graph.Snapshot
	visited *roaring.Bitmap
	found   *roaring.Bitmap
	order   []string
}

func NewState(snap *graph.Snapshot) *State {
	return &State{
		snap:    snap,
		visited: roaring.New(),
		found:   roaring.New(),
	}
}

// Reset empties the state for a new run over the same snapshot.
func (s *State) Reset() {
	s.visited.Clear()
	s.found.Clear()
	s.order = nil
}

func (s *State) markVisited(n *graph.Node) {
	s.visited.Add(n.ID)
	s.order = append(s.order, n.Path)
}

func (s *State) markFound(n *graph.Node) {
	s.found.Add(n.ID)
}

// IsVisited reports whether path was visited in this run.
func (s *State) IsVisited(path string) bool {
	n, ok := s.snap.Lookup(path)
	return ok && s.visited.Contains(n.ID)
}

// IsFound reports whether path matched in this run.
func (s *State) IsFound(path string) bool {
	n, ok := s.snap.Lookup(path)
	return ok && s.found.Contains(n.ID)
}

func (s *State) VisitedCount() int { return int(s.visited.GetCardinality()) }
func (s *State) FoundCount() int   { return int(s.found.GetCardinality()) }

// Order returns a copy of the visitation sequence.
func (s *State) Order() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Visited returns the visited paths in snapshot ID order.
func (s *State) Visited() []string {
	return s.paths(s.visited)
}

// Found returns the matching paths in snapshot ID order.
func (s *State) Found() []string {
	return s.paths(s.found)
}

func (s *State) paths(bm *roaring.Bitmap) []string {
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if n, ok := s.snap.NodeByID(it.Next()); ok {
			out = append(out, n.Path)
		}
	}
	return out
}

// Snapshot returns the snapshot this state indexes into.
func (s *State) Snapshot() *graph.Snapshot {
	return s.snap
}
