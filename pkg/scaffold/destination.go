// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// dirPerm is the permission used for the destination directory and any
// missing ancestors.
const dirPerm = 0o755

// AllocateDestination normalizes raw into a project name and exclusively
// creates <parent>/<name>, where parent is targetParent or workingDir when
// absent. It returns the normalized name and the canonical destination path.
//
// Nothing is created when the destination already exists. Ancestors created
// before a later failure are not removed.
func AllocateDestination(targetParent Optional[string], workingDir string, raw ResolvedName) (name, dest string, err error) {
	name, err = NormalizeName(string(raw))
	if err != nil {
		return "", "", err
	}

	path := destinationPath(targetParent, workingDir, name)

	if _, err := os.Lstat(path); err == nil {
		return "", "", &DirectoryAlreadyExistsError{Path: path}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", "", &DirectoryCreationError{Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return "", "", &DirectoryCreationError{Path: path, Err: err}
	}
	// Mkdir on the leaf is the exclusive step: a concurrent creator loses here.
	if err := os.Mkdir(path, dirPerm); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", "", &DirectoryAlreadyExistsError{Path: path}
		}
		return "", "", &DirectoryCreationError{Path: path, Err: err}
	}

	dest, err = canonicalize(path)
	if err != nil {
		return "", "", &CanonicalizationError{Path: path, Err: err}
	}

	return name, dest, nil
}

func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func destinationPath(targetParent Optional[string], workingDir, name string) string {
	return filepath.Join(targetParent.OrElse(workingDir), name)
}

// checkOutsideTemplate fails when path, once created, would lie within the
// template tree rooted at root. root must be canonical. path need not exist:
// its longest existing ancestor is resolved and the rest appended.
func checkOutsideTemplate(root, path string) error {
	resolved, err := resolveExisting(path)
	if err != nil {
		// unresolvable paths cannot be created either; allocation reports them
		return nil
	}
	if rel, err := filepath.Rel(root, resolved); err == nil && (rel == "." || filepath.IsLocal(rel)) {
		return &DestinationInsideTemplateError{Template: root, Destination: resolved}
	}
	return nil
}

// resolveExisting is canonicalize for paths whose trailing components may
// not exist yet.
func resolveExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var missing []string
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		missing = append([]string{filepath.Base(dir)}, missing...)
		dir = parent
	}
}
