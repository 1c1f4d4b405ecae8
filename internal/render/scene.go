// Package render turns snapshots and search results into things a person
// can look at: a positioned scene document for diagram front ends and a
// colored text report for terminals.
package render

import (
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/graph"
	"github.com/agentic-research/treesearch/internal/layout"
)

// Node states as they appear in a scene.
const (
	StateUnvisited = "unvisited"
	StateVisited   = "visited"
	StateFound     = "found"
)

// Document is a generic JSON tree as produced and consumed by ojg.
type Document = map[string]any

// Marks is the read side of a traversal: *traverse.State implements it, and
// ResultMarks adapts a finished api.Result.
type Marks interface {
	IsVisited(path string) bool
	IsFound(path string) bool
	Order() []string
}

type resultMarks struct {
	order   []string
	visited map[string]struct{}
	found   map[string]struct{}
}

// ResultMarks exposes res as Marks.
func ResultMarks(res *api.Result) Marks {
	m := &resultMarks{
		order:   res.Order,
		visited: make(map[string]struct{}, len(res.Visited)),
		found:   make(map[string]struct{}, len(res.Found)),
	}
	for _, p := range res.Visited {
		m.visited[p] = struct{}{}
	}
	for _, p := range res.Found {
		m.found[p] = struct{}{}
	}
	return m
}

func (m *resultMarks) IsVisited(path string) bool {
	_, ok := m.visited[path]
	return ok
}

func (m *resultMarks) IsFound(path string) bool {
	_, ok := m.found[path]
	return ok
}

func (m *resultMarks) Order() []string { return m.order }

// Scene describes every node of snap with its layout position and its
// traversal state in st. st may be nil for a tree that has not been
// searched yet. The snapshot must already be laid out.
func Scene(snap *graph.Snapshot, st Marks) Document {
	nodes := []any{}
	parent := map[uint32]int64{}
	var visited, found int64
	snap.Walk(func(n *graph.Node) bool {
		for _, c := range n.Children {
			parent[c.ID] = int64(n.ID)
		}
		entry := Document{
			"id":    int64(n.ID),
			"path":  n.Path,
			"name":  n.Name,
			"dir":   n.IsDir,
			"level": int64(n.Level),
			"x":     int64(n.X),
			"y":     int64(n.Y),
			"state": nodeState(st, n.Path),
		}
		switch entry["state"] {
		case StateFound:
			found++
			visited++
		case StateVisited:
			visited++
		}
		if p, ok := parent[n.ID]; ok {
			entry["parent"] = p
		} else {
			entry["parent"] = nil
		}
		nodes = append(nodes, entry)
		return true
	})

	doc := Document{
		"nodes": nodes,
		"total": int64(snap.Len()),
	}
	if snap != nil && snap.Root != nil {
		b := layout.Bounds(snap.Root)
		doc["bounds"] = Document{
			"min_x": int64(b.MinX),
			"min_y": int64(b.MinY),
			"max_x": int64(b.MaxX),
			"max_y": int64(b.MaxY),
		}
	}
	order := []any{}
	if st != nil {
		for _, p := range st.Order() {
			order = append(order, p)
		}
	}
	doc["visited"] = visited
	doc["found"] = found
	doc["order"] = order
	return doc
}

func nodeState(st Marks, path string) string {
	switch {
	case st == nil:
		return StateUnvisited
	case st.IsFound(path):
		return StateFound
	case st.IsVisited(path):
		return StateVisited
	}
	return StateUnvisited
}

// EncodeScene renders doc as indented JSON with sorted keys, so equal
// scenes encode to equal bytes.
func EncodeScene(doc Document) string {
	return oj.JSON(doc, &oj.Options{Indent: 2, Sort: true})
}
