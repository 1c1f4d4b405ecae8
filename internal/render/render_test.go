package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/graph"
	"github.com/agentic-research/treesearch/internal/ingest"
	"github.com/agentic-research/treesearch/internal/layout"
	"github.com/agentic-research/treesearch/internal/testutil"
	"github.com/agentic-research/treesearch/internal/traverse"
)

func laidOut(t *testing.T) *graph.Snapshot {
	t.Helper()
	lister := testutil.MemLister(t, "/root/B/", "/root/A/note.md", "/root/a.txt")
	snap, err := ingest.Build(context.Background(), lister, "/root", ingest.Options{})
	require.NoError(t, err)
	layout.Layout(snap.Root)
	return snap
}

func TestScene_States(t *testing.T) {
	snap := laidOut(t)
	st, err := traverse.BFS(context.Background(), snap, "*.txt", false, traverse.Options{})
	require.NoError(t, err)

	doc := Scene(snap, st)
	nodes := doc["nodes"].([]any)
	require.Len(t, nodes, snap.Len())

	states := map[string]string{}
	for _, n := range nodes {
		m := n.(Document)
		states[m["path"].(string)] = m["state"].(string)
	}
	assert.Equal(t, map[string]string{
		"/root":           StateVisited,
		"/root/A":         StateVisited,
		"/root/B":         StateVisited,
		"/root/a.txt":     StateFound,
		"/root/A/note.md": StateUnvisited,
	}, states)
	assert.Equal(t, int64(4), doc["visited"])
	assert.Equal(t, int64(1), doc["found"])
	assert.Len(t, doc["order"], 4)
}

func TestScene_ParentLinks(t *testing.T) {
	snap := laidOut(t)
	doc := Scene(snap, nil)

	for _, n := range doc["nodes"].([]any) {
		m := n.(Document)
		if m["path"] == "/root" {
			assert.Nil(t, m["parent"])
			continue
		}
		node, ok := snap.Lookup(m["path"].(string))
		require.True(t, ok)
		parent, ok := snap.NodeByID(uint32(m["parent"].(int64)))
		require.True(t, ok)
		assert.Equal(t, node.Level-1, parent.Level)
		assert.Contains(t, parent.Children, node)
	}
	assert.Empty(t, doc["order"])
	assert.Equal(t, int64(0), doc["visited"])
}

func TestEncodeScene_RoundTrip(t *testing.T) {
	snap := laidOut(t)
	st, err := traverse.DFS(context.Background(), snap, "*.md", true, traverse.Options{})
	require.NoError(t, err)

	out := EncodeScene(Scene(snap, st))
	assert.Equal(t, out, EncodeScene(Scene(snap, st)), "encoding is deterministic")

	parsed, err := oj.ParseString(out)
	require.NoError(t, err)
	doc := parsed.(map[string]any)
	assert.Equal(t, int64(5), doc["total"])
	bounds := doc["bounds"].(map[string]any)
	assert.Equal(t, int64(-30), bounds["min_y"])
	assert.Equal(t, int64(190), bounds["max_y"])
}

func TestResultMarks(t *testing.T) {
	snap := laidOut(t)
	res := &api.Result{
		Order:   []string{"/root", "/root/A", "/root/A/note.md"},
		Visited: []string{"/root", "/root/A", "/root/A/note.md"},
		Found:   []string{"/root/A/note.md"},
	}
	doc := Scene(snap, ResultMarks(res))
	assert.Equal(t, int64(3), doc["visited"])
	assert.Equal(t, int64(1), doc["found"])
}

func TestEfficiency(t *testing.T) {
	tests := []struct {
		name string
		res  *api.Result
		want float64
	}{
		{"nil", nil, 0},
		{"empty snapshot", &api.Result{}, 0},
		{"quarter visited", &api.Result{Visited: make([]string, 5), TotalNodes: 20}, 75},
		{"everything visited", &api.Result{Visited: make([]string, 20), TotalNodes: 20}, 0},
		{"clamped", &api.Result{Visited: make([]string, 30), TotalNodes: 20}, 0},
		{"find-all counts the same way", &api.Result{Request: api.Request{FindAll: true}, Visited: make([]string, 10), TotalNodes: 20}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Efficiency(tt.res), 1e-9)
		})
	}
}

func TestOrderPreview(t *testing.T) {
	assert.Equal(t, "root → A → a.txt", OrderPreview([]string{"/root", "/root/A", "/root/a.txt"}, 0))
	assert.Equal(t, "", OrderPreview(nil, 0))

	long := testutil.Numbered("/r", "f", ".go", 20)
	preview := OrderPreview(long, 0)
	assert.True(t, strings.HasPrefix(preview, "f00.go → f01.go"))
	assert.True(t, strings.HasSuffix(preview, "f14.go → ... and 5 more"))

	assert.Equal(t, "f00.go → ... and 19 more", OrderPreview(long, 1))
}

func TestReport(t *testing.T) {
	res := &api.Result{
		Request:    api.Request{Algorithm: api.BFS, Pattern: "*.txt"},
		Order:      []string{"/root", "/root/A", "/root/B", "/root/a.txt"},
		Visited:    []string{"/root", "/root/A", "/root/B", "/root/a.txt"},
		Found:      []string{"/root/a.txt"},
		TotalNodes: 5,
		Duration:   12 * time.Millisecond,
	}
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, res, ReportOptions{}))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "no colors unless asked")
	assert.Contains(t, out, "Found 1 file(s):")
	assert.Contains(t, out, "/root/a.txt")
	assert.Contains(t, out, "BFS (Breadth-First Search)")
	assert.Contains(t, out, "12 ms")
	assert.Contains(t, out, "20.0%")
	assert.Contains(t, out, "Traversal Order (BFS)")
	assert.Contains(t, out, "root → A → B → a.txt")
	assert.True(t, strings.HasSuffix(out, "Search completed. Found 1 matches. Visited 4 paths.\n"))
}

func TestReport_NoMatchesAndColor(t *testing.T) {
	res := &api.Result{Request: api.Request{Algorithm: api.DFS}}
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, res, ReportOptions{Color: true}))
	out := buf.String()
	assert.Contains(t, out, "No files found matching the search criteria.")
	assert.Contains(t, out, "\x1b[")
	assert.NotContains(t, out, "Search Efficiency")
}

func TestColorEnabled_NonFile(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
}
