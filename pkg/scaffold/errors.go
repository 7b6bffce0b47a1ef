// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTemplatePath is the sentinel error wrapped by InvalidTemplatePathError.
	ErrInvalidTemplatePath = errors.New("invalid template path")
	// ErrInvalidSourceIdentifier is the sentinel error wrapped by InvalidSourceIdentifierError.
	ErrInvalidSourceIdentifier = errors.New("invalid source identifier")
	// ErrInvalidProjectName is the sentinel error wrapped by InvalidProjectNameError.
	ErrInvalidProjectName = errors.New("invalid project name")
	// ErrDirectoryAlreadyExists is the sentinel error wrapped by DirectoryAlreadyExistsError.
	ErrDirectoryAlreadyExists = errors.New("directory already exists")
	// ErrDestinationInsideTemplate is the sentinel error wrapped by DestinationInsideTemplateError.
	ErrDestinationInsideTemplate = errors.New("destination inside template")
	// ErrDirectoryCreationFailed is the sentinel error wrapped by DirectoryCreationError.
	ErrDirectoryCreationFailed = errors.New("failed to create directory")
	// ErrCanonicalizationFailed is the sentinel error wrapped by CanonicalizationError.
	ErrCanonicalizationFailed = errors.New("failed to canonicalize directory")
	// ErrEntryRead is the sentinel error wrapped by EntryReadError.
	ErrEntryRead = errors.New("failed to read template entry")
	// ErrPrefixStrip is the sentinel error wrapped by PrefixStripError.
	ErrPrefixStrip = errors.New("failed to strip template path prefix")
	// ErrIO is the sentinel error wrapped by IOError.
	ErrIO = errors.New("materialization I/O error")

	// ErrUnsupportedEntry is the cause attached to an EntryReadError for entries
	// that are neither directories nor (links to) regular files.
	ErrUnsupportedEntry = errors.New("unsupported entry type")
	// ErrPathEscape is the cause attached to an IOError when a target path
	// would land outside the destination root.
	ErrPathEscape = errors.New("path escapes destination root")
)

type (
	// InvalidTemplatePathError is returned when the template root is not an existing directory.
	InvalidTemplatePathError struct {
		Path string
	}

	// InvalidSourceIdentifierError is returned when no repository name can be
	// derived from a source identifier.
	InvalidSourceIdentifierError struct {
		Identifier string
	}

	// InvalidProjectNameError is returned when normalizing a name leaves nothing usable.
	InvalidProjectNameError struct {
		Name string
	}

	// DirectoryAlreadyExistsError is returned when the destination path is already taken.
	DirectoryAlreadyExistsError struct {
		Path string
	}

	// DestinationInsideTemplateError is returned when the project would be
	// created within the template tree it is copied from.
	DestinationInsideTemplateError struct {
		Template    string
		Destination string
	}

	// DirectoryCreationError is returned when the destination cannot be created.
	DirectoryCreationError struct {
		Path string
		Err  error
	}

	// CanonicalizationError is returned when the created destination cannot be
	// resolved to an absolute, symlink-free path.
	CanonicalizationError struct {
		Path string
		Err  error
	}

	// EntryReadError is returned when the walk cannot stat or read a template entry.
	EntryReadError struct {
		Path string
		Err  error
	}

	// PrefixStripError is returned when an entry cannot be expressed relative to the template root.
	PrefixStripError struct {
		Root string
		Path string
	}

	// IOError is returned when materializing an entry fails.
	IOError struct {
		// Op is the failed operation ("create directory", "read", "write").
		Op   string
		Path string
		Err  error
	}
)

func (e *InvalidTemplatePathError) Error() string {
	return fmt.Sprintf("invalid template path specified: %q", e.Path)
}

func (e *InvalidTemplatePathError) Unwrap() error { return ErrInvalidTemplatePath }

func (e *InvalidSourceIdentifierError) Error() string {
	return fmt.Sprintf("invalid source identifier %q: no repository name found", e.Identifier)
}

func (e *InvalidSourceIdentifierError) Unwrap() error { return ErrInvalidSourceIdentifier }

func (e *InvalidProjectNameError) Error() string {
	return fmt.Sprintf("invalid project name %q: nothing left after normalization", e.Name)
}

func (e *InvalidProjectNameError) Unwrap() error { return ErrInvalidProjectName }

func (e *DirectoryAlreadyExistsError) Error() string {
	return fmt.Sprintf("failed to create directory %q because it already exists", e.Path)
}

func (e *DirectoryAlreadyExistsError) Unwrap() error { return ErrDirectoryAlreadyExists }

func (e *DestinationInsideTemplateError) Error() string {
	return fmt.Sprintf("destination %q is inside template %q", e.Destination, e.Template)
}

func (e *DestinationInsideTemplateError) Unwrap() error { return ErrDestinationInsideTemplate }

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("failed to create directory %q: %v", e.Path, e.Err)
}

func (e *DirectoryCreationError) Unwrap() []error {
	return []error{ErrDirectoryCreationFailed, e.Err}
}

func (e *CanonicalizationError) Error() string {
	return fmt.Sprintf("failed to canonicalize directory %q: %v", e.Path, e.Err)
}

func (e *CanonicalizationError) Unwrap() []error {
	return []error{ErrCanonicalizationFailed, e.Err}
}

func (e *EntryReadError) Error() string {
	return fmt.Sprintf("failed to read entry %q: %v", e.Path, e.Err)
}

func (e *EntryReadError) Unwrap() []error {
	return []error{ErrEntryRead, e.Err}
}

func (e *PrefixStripError) Error() string {
	return fmt.Sprintf("failed to strip prefix %q from %q", e.Root, e.Path)
}

func (e *PrefixStripError) Unwrap() error { return ErrPrefixStrip }

func (e *IOError) Error() string {
	return fmt.Sprintf("unable to %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}
