// Package testutil builds in-memory directory trees for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/treesearch/internal/fs"
)

// MemTree creates a memfs containing entries. An entry ending in "/" is a
// directory; anything else is a file whose content is its own path.
func MemTree(t testing.TB, entries ...string) billy.Filesystem {
	t.Helper()
	fsys := memfs.New()
	for _, e := range entries {
		if strings.HasSuffix(e, "/") {
			require.NoError(t, fsys.MkdirAll(strings.TrimSuffix(e, "/"), 0o755))
			continue
		}
		require.NoError(t, util.WriteFile(fsys, e, []byte(e), 0o644))
	}
	return fsys
}

// MemLister is MemTree wrapped in a Lister.
func MemLister(t testing.TB, entries ...string) *fs.BillyLister {
	t.Helper()
	return fs.New(MemTree(t, entries...))
}

// Numbered returns n file paths dir/prefixNN.ext, zero-padded so that
// name order equals numeric order.
func Numbered(dir, prefix, ext string, n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = fmt.Sprintf("%s/%s%02d%s", dir, prefix, i, ext)
	}
	return out
}

// Chain returns nested directories dir/d1/d2/.../dN/ (each with a trailing
// slash) plus a file named leaf at the bottom.
func Chain(dir string, n int, leaf string) []string {
	out := make([]string, 0, n+1)
	cur := dir
	for i := 1; i <= n; i++ {
		cur = fmt.Sprintf("%s/d%d", cur, i)
		out = append(out, cur+"/")
	}
	return append(out, cur+"/"+leaf)
}
