// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Materialize reproduces entry under destRoot at entry.RelPath. Directories
// are created, files are copied byte for byte with their permission bits.
// An existing target is an error; nothing is overwritten.
func Materialize(entry TreeEntry, destRoot string) error {
	_, err := materialize(entry, destRoot)
	return err
}

// materialize is Materialize that also reports the number of bytes copied.
func materialize(entry TreeEntry, destRoot string) (int64, error) {
	target, err := targetPath(destRoot, entry.RelPath)
	if err != nil {
		return 0, err
	}

	switch entry.Kind {
	case KindDirectory:
		return 0, makeDir(entry.SourcePath, target)
	case KindFile:
		return copyFile(entry.SourcePath, target)
	default:
		return 0, &IOError{Op: "materialize", Path: target, Err: fmt.Errorf("%w: %s", ErrUnsupportedEntry, entry.Kind)}
	}
}

// targetPath joins rel onto destRoot, refusing anything that would not stay
// strictly below it (the root itself, absolute paths, ".." traversal).
func targetPath(destRoot, rel string) (string, error) {
	if !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return "", &IOError{Op: "materialize", Path: filepath.Join(destRoot, rel), Err: ErrPathEscape}
	}
	return filepath.Join(destRoot, rel), nil
}

func makeDir(source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return &IOError{Op: "stat", Path: source, Err: err}
	}
	// owner rwx is kept so children can always be written afterwards
	if err := os.Mkdir(target, info.Mode().Perm()|0o700); err != nil {
		return &IOError{Op: "create directory", Path: target, Err: err}
	}
	return nil
}

func copyFile(source, target string) (n int64, err error) {
	in, err := os.Open(source)
	if err != nil {
		return 0, &IOError{Op: "read", Path: source, Err: err}
	}
	defer func() { _ = in.Close() }() // Read-only handle; close error non-critical

	info, err := in.Stat()
	if err != nil {
		return 0, &IOError{Op: "read", Path: source, Err: err}
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return 0, &IOError{Op: "write", Path: target, Err: err}
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = &IOError{Op: "write", Path: target, Err: closeErr}
		}
	}()

	n, err = io.Copy(out, in)
	if err != nil {
		return n, &IOError{Op: "copy", Path: target, Err: err}
	}
	return n, nil
}
