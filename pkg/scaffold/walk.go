// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// VCSDirName is the version-control metadata directory never copied from a template.
const VCSDirName = ".git"

const (
	// KindFile is a regular file, or a symlink to one.
	KindFile EntryKind = iota + 1
	// KindDirectory is a directory.
	KindDirectory
)

type (
	// EntryKind classifies a TreeEntry.
	EntryKind int

	// TreeEntry is one template entry produced by Walk.
	TreeEntry struct {
		// RelPath is relative to the template root, using the OS separator.
		RelPath string
		Kind    EntryKind
		// SourcePath is the absolute (or root-joined) path of the entry on disk.
		SourcePath string
	}

	// WalkOptions configures Walk.
	WalkOptions struct {
		// Exclude holds doublestar patterns matched against slash-separated
		// relative paths. ".git" components are always excluded.
		Exclude []string
	}
)

// String returns a human-readable kind name.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// IsExcluded reports whether a template entry must not be copied. relPath is
// relative to the template root. An entry is excluded when any component is
// exactly ".git", or when its slash-separated form matches one of patterns.
func IsExcluded(relPath string, patterns []string) bool {
	slashed := filepath.ToSlash(relPath)
	for component := range strings.SplitSeq(slashed, "/") {
		if component == VCSDirName {
			return true
		}
	}
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}

// Walk returns the template entries under root in depth-first, lexical order
// with every directory before its children. The root itself and excluded
// entries are dropped; excluded directories are not descended into.
//
// The first traversal failure is yielded as an error and ends the sequence.
// Each range over the result walks the filesystem again.
func Walk(root string, opts WalkOptions) iter.Seq2[TreeEntry, error] {
	excluded := func(rel string) bool { return IsExcluded(rel, opts.Exclude) }

	return func(yield func(TreeEntry, error) bool) {
		for entry, err := range enumerate(root, excluded) {
			if err != nil {
				yield(TreeEntry{}, err)
				return
			}
			if entry.RelPath == "" || excluded(entry.RelPath) {
				continue
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// enumerate yields every entry under root, the root included (with an empty
// RelPath). Entries for which prune returns true are not yielded, and pruned
// directories are not descended into.
func enumerate(root string, prune func(rel string) bool) iter.Seq2[TreeEntry, error] {
	return func(yield func(TreeEntry, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				yield(TreeEntry{}, &EntryReadError{Path: path, Err: walkErr})
				return filepath.SkipAll
			}

			rel, err := relativePath(root, path)
			if err != nil {
				yield(TreeEntry{}, err)
				return filepath.SkipAll
			}

			if rel != "" && prune(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			entry, err := classify(path, rel, d)
			if err != nil {
				yield(TreeEntry{}, err)
				return filepath.SkipAll
			}

			if !yield(entry, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// relativePath strips root from path. The root maps to "".
func relativePath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PrefixStripError{Root: root, Path: path}
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

func classify(path, rel string, d fs.DirEntry) (TreeEntry, error) {
	entry := TreeEntry{RelPath: rel, SourcePath: path}

	switch mode := d.Type(); {
	case d.IsDir():
		entry.Kind = KindDirectory
	case mode.IsRegular():
		entry.Kind = KindFile
	case mode&fs.ModeSymlink != 0:
		// Links are never traversed; only links to regular files are copied.
		info, err := os.Stat(path)
		if err != nil {
			return TreeEntry{}, &EntryReadError{Path: path, Err: err}
		}
		if !info.Mode().IsRegular() {
			return TreeEntry{}, &EntryReadError{Path: path, Err: fmt.Errorf("%w: symlink target is not a regular file", ErrUnsupportedEntry)}
		}
		entry.Kind = KindFile
	default:
		return TreeEntry{}, &EntryReadError{Path: path, Err: ErrUnsupportedEntry}
	}

	return entry, nil
}
