// Package fs is the filesystem collaborator used to build tree snapshots.
// It adapts a billy.Filesystem (osfs for the real disk, memfs in tests)
// to the narrow Lister interface the builder and traversal engines need.
package fs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// Entry is one immediate child of a directory.
type Entry struct {
	Path  string
	Name  string
	IsDir bool
}

// Lister is the capability the core calls to read the filesystem.
// ListChildren returns an empty slice (never an error) when the target
// cannot be listed or has no children.
type Lister interface {
	Exists(path string) bool
	IsDir(path string) bool
	ListChildren(path string) []Entry
}

// BillyLister implements Lister on top of a billy.Filesystem.
type BillyLister struct {
	fs     billy.Filesystem
	logger *zap.Logger
}

// Option configures a BillyLister.
type Option func(*BillyLister)

// WithLogger records listing failures at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(b *BillyLister) {
		if l != nil {
			b.logger = l
		}
	}
}

// New wraps fsys. Paths passed to the Lister are absolute paths inside fsys.
func New(fsys billy.Filesystem, opts ...Option) *BillyLister {
	b := &BillyLister{fs: fsys, logger: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// OS returns a Lister over the host filesystem rooted at "/".
func OS(opts ...Option) *BillyLister {
	return New(osfs.New("/"), opts...)
}

// Exists implements Lister.
func (b *BillyLister) Exists(path string) bool {
	_, err := b.fs.Stat(cleanPath(path))
	return err == nil
}

// IsDir implements Lister.
func (b *BillyLister) IsDir(path string) bool {
	info, err := b.fs.Stat(cleanPath(path))
	return err == nil && info.IsDir()
}

// ListChildren implements Lister. Order follows the underlying filesystem;
// callers that need the canonical order use SortEntries.
//
// Symbolic links are classified by their target, matching Exists and IsDir.
// Dangling links are left out since Exists would report them missing.
func (b *BillyLister) ListChildren(path string) []Entry {
	path = cleanPath(path)
	infos, err := b.fs.ReadDir(path)
	if err != nil {
		b.logger.Debug("list children failed, treating as empty",
			zap.String("path", path), zap.Error(err))
		return []Entry{}
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		child := b.fs.Join(path, info.Name())
		isDir := info.IsDir()
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := b.fs.Stat(child)
			if err != nil {
				b.logger.Debug("skipping dangling symlink",
					zap.String("path", child), zap.Error(err))
				continue
			}
			isDir = target.IsDir()
		}
		entries = append(entries, Entry{
			Path:  child,
			Name:  info.Name(),
			IsDir: isDir,
		})
	}
	return entries
}

// SortEntries orders entries directories first, then by case-insensitive
// name. Exact name breaks remaining ties so the order is total.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i].Name, entries[i].IsDir, entries[j].Name, entries[j].IsDir)
	})
}

// Less reports whether (aName, aDir) sorts before (bName, bDir).
func Less(aName string, aDir bool, bName string, bDir bool) bool {
	if aDir != bDir {
		return aDir
	}
	al, bl := strings.ToLower(aName), strings.ToLower(bName)
	if al != bl {
		return al < bl
	}
	return aName < bName
}

func cleanPath(path string) string {
	if path == "" {
		return string(os.PathSeparator)
	}
	return filepath.Clean(path)
}

var _ Lister = (*BillyLister)(nil)
