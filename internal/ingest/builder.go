package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/graph"
	"go.uber.org/zap"
)

const (
	DefaultMaxDepth  = 5
	DefaultMaxFanout = 10
)

// ErrInvalidRoot is returned when the root path is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid root directory")

// Options bounds the snapshot. Zero values select the defaults.
type Options struct {
	MaxDepth  int
	MaxFanout int
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxFanout <= 0 {
		o.MaxFanout = DefaultMaxFanout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Builder materializes a bounded tree snapshot from a filesystem Lister.
type Builder struct {
	Lister fs.Lister
	opts   Options
}

func NewBuilder(lister fs.Lister, opts Options) *Builder {
	return &Builder{
		Lister: lister,
		opts:   opts.withDefaults(),
	}
}

// Build walks rootPath breadth-first with an explicit worklist. Directories
// at level < MaxDepth are expanded; each keeps at most MaxFanout children
// after sorting. Listing failures leave a directory childless.
func (b *Builder) Build(ctx context.Context, rootPath string) (*graph.Snapshot, error) {
	rootPath = filepath.Clean(rootPath)
	if !b.Lister.Exists(rootPath) || !b.Lister.IsDir(rootPath) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, rootPath)
	}

	snap := graph.NewSnapshot()
	root := &graph.Node{
		Path:  rootPath,
		Name:  filepath.Base(rootPath),
		IsDir: true,
	}
	snap.SetRoot(root)

	work := []*graph.Node{root}
	for len(work) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent := work[0]
		work = work[1:]

		if parent.Level >= b.opts.MaxDepth {
			continue
		}

		entries := b.Lister.ListChildren(parent.Path)
		fs.SortEntries(entries)
		if len(entries) > b.opts.MaxFanout {
			b.opts.Logger.Debug("fanout cap reached",
				zap.String("path", parent.Path),
				zap.Int("entries", len(entries)),
				zap.Int("kept", b.opts.MaxFanout))
			entries = entries[:b.opts.MaxFanout]
		}

		for _, e := range entries {
			child := &graph.Node{
				Path:  filepath.Clean(e.Path),
				Name:  e.Name,
				IsDir: e.IsDir,
			}
			snap.AddChild(parent, child)
			if child.IsDir {
				work = append(work, child)
			}
		}
	}

	b.opts.Logger.Debug("snapshot built",
		zap.String("root", rootPath),
		zap.Int("nodes", snap.Len()))
	return snap, nil
}

// Build is a convenience wrapper around NewBuilder(...).Build.
func Build(ctx context.Context, lister fs.Lister, rootPath string, opts Options) (*graph.Snapshot, error) {
	return NewBuilder(lister, opts).Build(ctx, rootPath)
}
