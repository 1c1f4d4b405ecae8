package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidAlgorithm is returned when a request names an unknown traversal.
var ErrInvalidAlgorithm = errors.New("invalid algorithm")

// Algorithm selects the traversal engine.
type Algorithm string

const (
	BFS Algorithm = "bfs"
	DFS Algorithm = "dfs"
)

// ParseAlgorithm accepts "bfs" or "dfs" in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case BFS:
		return BFS, nil
	case DFS:
		return DFS, nil
	}
	return "", fmt.Errorf("%w: %q (want bfs or dfs)", ErrInvalidAlgorithm, s)
}

// Short returns the upper-case tag used in status messages ("BFS", "DFS").
func (a Algorithm) Short() string {
	return strings.ToUpper(string(a))
}

// Label returns the long human-readable name of the algorithm.
func (a Algorithm) Label() string {
	switch a {
	case BFS:
		return "BFS (Breadth-First Search)"
	case DFS:
		return "DFS (Depth-First Search)"
	}
	return string(a)
}

// Request is the full set of inputs for one search run.
type Request struct {
	// RootPath is the directory the snapshot is built from.
	RootPath string `json:"root_path"`
	// Pattern is an exact name or a "*" wildcard pattern.
	Pattern string `json:"pattern"`
	// FindAll collects every match instead of stopping at the first.
	FindAll bool `json:"find_all"`
	// Algorithm selects BFS or DFS.
	Algorithm Algorithm `json:"algorithm"`

	// MaxDepth and MaxFanout bound the snapshot (0 = defaults).
	MaxDepth  int `json:"max_depth,omitempty"`
	MaxFanout int `json:"max_fanout,omitempty"`
	// Delay paces each visited node for animation (0 = none).
	Delay time.Duration `json:"delay,omitempty"`
}

// Result is the read-only outcome of a finished run.
type Result struct {
	Request Request `json:"request"`
	// Order lists visited paths in visitation sequence.
	Order []string `json:"order"`
	// Visited is the visited set, in snapshot order.
	Visited []string `json:"visited"`
	// Found is the set of matching file paths, in snapshot order.
	Found      []string      `json:"found"`
	TotalNodes int           `json:"total_nodes"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
