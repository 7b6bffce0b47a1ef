// SPDX-License-Identifier: MPL-2.0

// Package manifest reads the optional temploy.toml file at the root of a
// template (and therefore of every project generated from it).
//
// Example:
//
//	exclude = ["**/*.log", "node_modules"]
//
//	[deploy]
//	service    = "hello-api"
//	dockerfile = "build/Dockerfile"
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the manifest file name looked up at a template or project root.
const FileName = "temploy.toml"

// ErrParse is the sentinel error wrapped by ParseError.
var ErrParse = errors.New("invalid template manifest")

type (
	// Manifest is the decoded temploy.toml.
	Manifest struct {
		// Exclude lists doublestar patterns, relative to the template root,
		// for entries that are not copied into generated projects.
		Exclude []string `toml:"exclude"`
		// Deploy holds defaults for `temploy deploy`.
		Deploy Deploy `toml:"deploy"`
	}

	// Deploy holds per-project deploy defaults.
	Deploy struct {
		Service    string `toml:"service"`
		Image      string `toml:"image"`
		Dockerfile string `toml:"dockerfile"`
	}

	// ParseError is returned when a manifest exists but cannot be used.
	ParseError struct {
		Path string
		Err  error
	}
)

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Load reads FileName from dir. A missing file yields an empty manifest.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return Parse(data, path)
}

// Parse decodes manifest data. Unknown keys are rejected so typos surface
// instead of being silently ignored. path is only used in errors.
func Parse(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&m); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := m.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &m, nil
}

// Validate checks that every exclusion pattern is a valid glob.
func (m *Manifest) Validate() error {
	for i, pattern := range m.Exclude {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("exclude[%d]: invalid pattern %q", i, pattern)
		}
	}
	return nil
}
