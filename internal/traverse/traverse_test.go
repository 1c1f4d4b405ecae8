package traverse

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/graph"
	"github.com/agentic-research/treesearch/internal/ingest"
	"github.com/agentic-research/treesearch/internal/testutil"
)

var algorithms = []api.Algorithm{api.BFS, api.DFS}

func buildSnapshot(t *testing.T, lister fs.Lister, root string) *graph.Snapshot {
	t.Helper()
	snap, err := ingest.Build(context.Background(), lister, root, ingest.Options{})
	require.NoError(t, err)
	return snap
}

// exampleTree is the directory used throughout: folders B and A plus a.txt.
func exampleTree(t *testing.T) *graph.Snapshot {
	return buildSnapshot(t, testutil.MemLister(t,
		"/root/B/",
		"/root/A/note.md",
		"/root/a.txt",
	), "/root")
}

// projectTree is a larger, irregular tree with matches at several depths.
func projectTree(t *testing.T) *graph.Snapshot {
	return buildSnapshot(t, testutil.MemLister(t,
		"/proj/README.md",
		"/proj/go.mod",
		"/proj/cmd/main.go",
		"/proj/cmd/tools/gen.go",
		"/proj/docs/guide.md",
		"/proj/docs/api/ref.md",
		"/proj/docs/api/old/Ref_v1.MD",
		"/proj/internal/core/core.go",
		"/proj/internal/core/core_test.go",
		"/proj/internal/util/strings.go",
		"/proj/internal/empty/",
		"/proj/zz/deep/deeper/deepest/notes.txt",
	), "/proj")
}

func TestBFS_ExampleFindFirst(t *testing.T) {
	snap := exampleTree(t)

	st, err := BFS(context.Background(), snap, "*.txt", false, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/root", "/root/A", "/root/B", "/root/a.txt"}, st.Order())
	assert.Equal(t, []string{"/root/a.txt"}, st.Found())
	assert.False(t, st.IsVisited("/root/A/note.md"), "queued entry must not be processed after first match")
}

func TestDFS_ExampleFindFirst(t *testing.T) {
	snap := exampleTree(t)

	st, err := DFS(context.Background(), snap, "*.txt", false, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/root", "/root/A", "/root/A/note.md", "/root/B", "/root/a.txt"}, st.Order())
	assert.Equal(t, []string{"/root/a.txt"}, st.Found())
}

func TestBFS_LevelOrder(t *testing.T) {
	snap := projectTree(t)

	st, err := BFS(context.Background(), snap, "nothing-matches", true, Options{})
	require.NoError(t, err)

	order := st.Order()
	require.Len(t, order, snap.Len())
	prev := 0
	for _, p := range order {
		n, ok := snap.Lookup(p)
		require.True(t, ok)
		assert.GreaterOrEqual(t, n.Level, prev, "level order violated at %s", p)
		prev = n.Level
	}
	assert.Equal(t, []string{"/proj", "/proj/cmd", "/proj/docs", "/proj/internal", "/proj/zz", "/proj/go.mod", "/proj/README.md"}, order[:7])
}

func TestDFS_PreOrder(t *testing.T) {
	snap := projectTree(t)

	st, err := DFS(context.Background(), snap, "nothing-matches", true, Options{})
	require.NoError(t, err)

	var want []string
	snap.Walk(func(n *graph.Node) bool {
		want = append(want, n.Path)
		return true
	})
	assert.Equal(t, want, st.Order())
}

func TestFindFirst_StopsAtFirstMatch(t *testing.T) {
	patterns := []string{"*.go", "*.md", "ref_v1.md", "notes.txt", "go.mod", "missing"}
	for _, algo := range algorithms {
		for _, pattern := range patterns {
			t.Run(string(algo)+"/"+pattern, func(t *testing.T) {
				snap := projectTree(t)
				ctx := context.Background()

				full, err := Run(ctx, algo, snap, pattern, true, Options{})
				require.NoError(t, err)
				first, err := Run(ctx, algo, snap, pattern, false, Options{})
				require.NoError(t, err)

				fullOrder := full.Order()
				firstOrder := first.Order()

				// The find-first run is a prefix of the full run ending at
				// the first match in traversal order.
				require.LessOrEqual(t, len(firstOrder), len(fullOrder))
				assert.Equal(t, fullOrder[:len(firstOrder)], firstOrder)

				if full.FoundCount() == 0 {
					assert.Equal(t, fullOrder, firstOrder)
					assert.Zero(t, first.FoundCount())
					return
				}
				require.Equal(t, 1, first.FoundCount())
				last := firstOrder[len(firstOrder)-1]
				assert.Equal(t, []string{last}, first.Found())
				for _, p := range firstOrder[:len(firstOrder)-1] {
					assert.False(t, full.IsFound(p), "%s matched before the reported first match", p)
				}
			})
		}
	}
}

func TestFindAll_Completeness(t *testing.T) {
	for _, algo := range algorithms {
		for _, pattern := range []string{"*.go", "*.MD", "core*", "*"} {
			t.Run(string(algo)+"/"+pattern, func(t *testing.T) {
				snap := projectTree(t)

				st, err := Run(context.Background(), algo, snap, pattern, true, Options{})
				require.NoError(t, err)

				var want []string
				for _, f := range snap.Files() {
					if Matches(f.Name, pattern) {
						want = append(want, f.Path)
					}
				}
				got := st.Found()
				sort.Strings(want)
				sort.Strings(got)
				assert.Equal(t, want, got)
				assert.Equal(t, snap.Len(), st.VisitedCount())
			})
		}
	}
}

func TestFound_NeverIncludesDirectories(t *testing.T) {
	snap := projectTree(t)
	for _, algo := range algorithms {
		st, err := Run(context.Background(), algo, snap, "docs", true, Options{})
		require.NoError(t, err)
		assert.Zero(t, st.FoundCount(), "directory named docs must not be found")
		assert.True(t, st.IsVisited("/proj/docs"))
	}
}

func TestFindAll_SymlinkedDirectoryIsDescended(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "real", "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real", "inner", "x.txt"), []byte("x"), 0o644))
	if err := os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "linked.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "broken.txt")))

	snap := buildSnapshot(t, fs.OS(), dir)
	linked, err := snap.Get(filepath.Join(dir, "linked.txt"))
	require.NoError(t, err)
	assert.True(t, linked.IsDir)
	assert.Len(t, linked.Children, 1)
	assert.False(t, snap.Contains(filepath.Join(dir, "broken.txt")))

	for _, algo := range algorithms {
		t.Run(algo.Short(), func(t *testing.T) {
			st, err := Run(context.Background(), algo, snap, "*.txt", true, Options{})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{
				filepath.Join(dir, "linked.txt", "inner", "x.txt"),
				filepath.Join(dir, "real", "inner", "x.txt"),
			}, st.Found())
		})
	}
}

func TestOrder_Deterministic(t *testing.T) {
	for _, algo := range algorithms {
		first, err := Run(context.Background(), algo, projectTree(t), "*.go", true, Options{})
		require.NoError(t, err)
		second, err := Run(context.Background(), algo, projectTree(t), "*.go", true, Options{})
		require.NoError(t, err)
		assert.Equal(t, first.Order(), second.Order(), string(algo))
	}
}

func TestBoundary_RelistingRespectsLookup(t *testing.T) {
	entries := append([]string{"/root/sub/"}, testutil.Numbered("/root", "f", ".txt", 14)...)
	mem := testutil.MemTree(t, entries...)
	lister := fs.New(mem)
	snap := buildSnapshot(t, lister, "/root")
	require.Equal(t, 11, snap.Len(), "root + 10 capped children")

	// The live tree grows after the snapshot was taken.
	require.NoError(t, util.WriteFile(mem, "/root/sub/late.txt", []byte("late"), 0o644))
	require.NoError(t, util.WriteFile(mem, "/root/aaa.txt", []byte("late"), 0o644))

	for _, algo := range algorithms {
		st, err := Run(context.Background(), algo, snap, "*.txt", true, Options{Lister: lister})
		require.NoError(t, err)

		for _, p := range st.Visited() {
			assert.True(t, snap.Contains(p), "%s visited outside snapshot", p)
		}
		assert.False(t, st.IsVisited("/root/f12.txt"))
		assert.NotContains(t, st.Order(), "/root/sub/late.txt")
		assert.NotContains(t, st.Order(), "/root/aaa.txt")
		assert.Equal(t, snap.Len(), st.VisitedCount())
	}
}

func TestRelisting_DeletedEntryIsNotVisited(t *testing.T) {
	mem := testutil.MemTree(t, "/root/keep.txt", "/root/drop.txt")
	snap := buildSnapshot(t, fs.New(mem), "/root")
	require.NoError(t, mem.Remove("/root/drop.txt"))

	for _, algo := range algorithms {
		st, err := Run(context.Background(), algo, snap, "*.txt", true, Options{Lister: fs.New(mem)})
		require.NoError(t, err)
		assert.Equal(t, []string{"/root", "/root/keep.txt"}, st.Order())
	}
}

func TestProgress_OneMessagePerVisit(t *testing.T) {
	snap := exampleTree(t)
	for _, algo := range algorithms {
		var msgs []string
		st, err := Run(context.Background(), algo, snap, "*.md", true, Options{
			Progress: func(msg string) { msgs = append(msgs, msg) },
		})
		require.NoError(t, err)
		require.Len(t, msgs, st.VisitedCount())
		assert.Equal(t, "Searching ("+algo.Short()+"): root", msgs[0])
	}
}

func TestCancel_BeforeStart(t *testing.T) {
	snap := exampleTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, algo := range algorithms {
		st, err := Run(ctx, algo, snap, "*.txt", true, Options{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, st.VisitedCount())
	}
}

func TestCancel_MidRunKeepsPrefix(t *testing.T) {
	for _, algo := range algorithms {
		snap := projectTree(t)
		full, err := Run(context.Background(), algo, snap, "*.go", true, Options{})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		seen := 0
		st, err := Run(ctx, algo, snap, "*.go", true, Options{
			Progress: func(string) {
				seen++
				if seen == 4 {
					cancel()
				}
			},
		})
		cancel()
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, full.Order()[:4], st.Order(), string(algo))
	}
}

func TestDelay_Paces(t *testing.T) {
	snap := exampleTree(t)
	start := time.Now()
	st, err := BFS(context.Background(), snap, "*.txt", true, Options{Delay: 2 * time.Millisecond})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), time.Duration(st.VisitedCount())*2*time.Millisecond)
}

func TestRun_InvalidAlgorithm(t *testing.T) {
	_, err := Run(context.Background(), api.Algorithm("astar"), exampleTree(t), "*", true, Options{})
	assert.ErrorIs(t, err, api.ErrInvalidAlgorithm)
}

func TestRun_EmptySnapshot(t *testing.T) {
	for _, algo := range algorithms {
		st, err := Run(context.Background(), algo, graph.NewSnapshot(), "*", true, Options{})
		require.NoError(t, err)
		assert.Zero(t, st.VisitedCount())
		assert.Empty(t, st.Order())
	}
}

func TestState_Reset(t *testing.T) {
	snap := exampleTree(t)
	st, err := BFS(context.Background(), snap, "*.txt", true, Options{})
	require.NoError(t, err)
	require.NotZero(t, st.VisitedCount())

	st.Reset()
	assert.Zero(t, st.VisitedCount())
	assert.Zero(t, st.FoundCount())
	assert.Empty(t, st.Order())
	assert.Same(t, snap, st.Snapshot())
}
