// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"context"
	"io"
	"os"

	"github.com/temploy/temploy/pkg/manifest"

	"github.com/charmbracelet/log"
)

type (
	// GenerationRequest describes one generation run.
	GenerationRequest struct {
		// TemplateRoot is the local template directory.
		TemplateRoot string
		// TargetParent is the directory the project is created in.
		// Absent means the Generator's working directory.
		TargetParent Optional[string]
		// ExplicitName overrides every derived name.
		ExplicitName Optional[string]
		// SourceIdentifier is the remote URL the template was cloned from.
		// It is only used to derive a name.
		SourceIdentifier Optional[string]
	}

	// Summary describes a generated (or partially generated) project.
	Summary struct {
		// Name is the normalized project name.
		Name string
		// Destination is the canonical project directory.
		Destination string
		Directories int
		Files       int
		Bytes       int64
	}

	// Generator runs generation requests. WorkingDir is injected rather than
	// read from the process so callers and tests control the default parent.
	Generator struct {
		WorkingDir string
		Logger     *log.Logger
	}
)

// NewGenerator creates a Generator. A nil logger discards all output.
func NewGenerator(workingDir string, logger *log.Logger) *Generator {
	return &Generator{WorkingDir: workingDir, Logger: logger}
}

// Generate resolves the project name, allocates the destination and copies
// the filtered template tree into it.
//
// A destination inside the template tree is refused before anything is
// created. Errors are returned unchanged from the failing step. When the failure
// happens after the destination was created, the returned Summary describes
// the partial tree left on disk; otherwise it is nil.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*Summary, error) {
	logger := g.logger()

	root, err := templateRoot(req.TemplateRoot)
	if err != nil {
		return nil, err
	}

	raw, err := ResolveName(req.ExplicitName, req.SourceIdentifier, req.TemplateRoot)
	if err != nil {
		return nil, err
	}

	// Read before allocating so a broken manifest leaves nothing behind.
	m, err := manifest.Load(root)
	if err != nil {
		return nil, err
	}

	// Copying into the template would walk over its own output.
	if name, err := NormalizeName(string(raw)); err == nil {
		if err := checkOutsideTemplate(root, destinationPath(req.TargetParent, g.WorkingDir, name)); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, dest, err := AllocateDestination(req.TargetParent, g.WorkingDir, raw)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Name: name, Destination: dest}
	logger.Info("generating project", "name", name, "template", req.TemplateRoot, "destination", dest)

	for entry, err := range Walk(root, WalkOptions{Exclude: m.Exclude}) {
		if err != nil {
			return summary, err
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		n, err := materialize(entry, dest)
		if err != nil {
			return summary, err
		}

		switch entry.Kind {
		case KindDirectory:
			summary.Directories++
		case KindFile:
			summary.Files++
			summary.Bytes += n
		}
		logger.Debug("materialized", "kind", entry.Kind, "path", entry.RelPath)
	}

	logger.Info("project generated", "name", name, "destination", dest, "files", summary.Files, "directories", summary.Directories)
	return summary, nil
}

func (g *Generator) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(io.Discard)
	}
	return g.Logger
}

// templateRoot checks that path is an existing directory and resolves it
// to an absolute, symlink-free path so the walk starts inside the real tree.
func templateRoot(path string) (string, error) {
	resolved, err := canonicalize(path)
	if err != nil {
		return "", &InvalidTemplatePathError{Path: path}
	}
	if info, err := os.Stat(resolved); err != nil || !info.IsDir() {
		return "", &InvalidTemplatePathError{Path: path}
	}
	return resolved, nil
}
