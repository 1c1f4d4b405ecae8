package graph

import (
	"errors"
	"sort"
)

var ErrNotFound = errors.New("node not found")

// Node is one entry of a tree snapshot.
// Layout fields (SubtreeWidth, X, Y) are meaningful only after layout runs.
type Node struct {
	ID           uint32 // Dense per-snapshot index, used by bitmap sets
	Path         string // Absolute path, unique within the snapshot
	Name         string
	IsDir        bool
	Level        int // Depth from root (root = 0)
	SiblingIndex int // Position among sorted siblings
	Children     []*Node

	SubtreeWidth int
	X, Y         int
}

// IsLeaf reports whether the node has no materialized children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Snapshot is a bounded, pre-materialized tree plus its path lookup table.
// The lookup table is the authoritative traversal boundary: a path absent
// from it is never visited.
//
// A Snapshot is written only by its builder and layout; after that it is
// read-only and safe for concurrent readers.
type Snapshot struct {
	Root   *Node
	lookup map[string]*Node
	nodes  []*Node // indexed by Node.ID
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		lookup: make(map[string]*Node),
	}
}

// SetRoot registers n as the snapshot root at level 0.
func (s *Snapshot) SetRoot(n *Node) {
	n.Level = 0
	n.SiblingIndex = 0
	s.Root = n
	s.register(n)
}

// AddChild appends child to parent and registers it in the lookup table.
// Level and SiblingIndex are derived from the parent.
func (s *Snapshot) AddChild(parent, child *Node) {
	child.Level = parent.Level + 1
	child.SiblingIndex = len(parent.Children)
	parent.Children = append(parent.Children, child)
	s.register(child)
}

func (s *Snapshot) register(n *Node) {
	if existing, ok := s.lookup[n.Path]; ok {
		// Re-registering a path keeps its ID so bitmaps stay valid.
		n.ID = existing.ID
		s.nodes[n.ID] = n
		s.lookup[n.Path] = n
		return
	}
	n.ID = uint32(len(s.nodes))
	s.nodes = append(s.nodes, n)
	s.lookup[n.Path] = n
}

// Lookup returns the node registered for path.
func (s *Snapshot) Lookup(path string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	n, ok := s.lookup[path]
	return n, ok
}

// Get is Lookup with an error for missing paths.
func (s *Snapshot) Get(path string) (*Node, error) {
	n, ok := s.Lookup(path)
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// Contains reports whether path is inside the snapshot boundary.
func (s *Snapshot) Contains(path string) bool {
	_, ok := s.Lookup(path)
	return ok
}

// Len returns the number of materialized nodes.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// NodeByID returns the node with the given dense ID.
func (s *Snapshot) NodeByID(id uint32) (*Node, bool) {
	if s == nil || int(id) >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[id], true
}

// Walk calls fn for every node in pre-order. Returning false from fn skips
// that node's children.
func (s *Snapshot) Walk(fn func(n *Node) bool) {
	if s == nil || s.Root == nil {
		return
	}
	stack := []*Node{s.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Paths returns every path in the lookup table, sorted.
func (s *Snapshot) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, len(s.lookup))
	for p := range s.lookup {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns all file (non-directory) nodes in ID order.
func (s *Snapshot) Files() []*Node {
	if s == nil {
		return nil
	}
	var files []*Node
	for _, n := range s.nodes {
		if !n.IsDir {
			files = append(files, n)
		}
	}
	return files
}

// MaxLevel returns the deepest node level in the snapshot.
func (s *Snapshot) MaxLevel() int {
	deepest := 0
	s.Walk(func(n *Node) bool {
		if n.Level > deepest {
			deepest = n.Level
		}
		return true
	})
	return deepest
}
