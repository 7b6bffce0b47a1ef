// SPDX-License-Identifier: MPL-2.0

// Package scaffold materializes a new project directory from a template tree.
//
// Generation is a fixed pipeline driven by [Generator.Generate]:
//
//  1. [ResolveName] picks the project name from an explicit name, a remote
//     source identifier, or the template directory's base name.
//  2. [AllocateDestination] normalizes that name and exclusively creates the
//     destination directory. An existing path is never merged into.
//  3. [Walk] lazily enumerates the template tree, parents before children,
//     dropping the root entry and anything [IsExcluded] rejects (every path
//     with a ".git" component, plus optional manifest globs).
//  4. [Materialize] reproduces each entry under the destination, copying file
//     bytes verbatim.
//
// Any failure stops the run and is returned unchanged. Entries copied before
// the failure stay on disk; there is no rollback.
//
// File contents are never interpreted: templates are copied structurally.
package scaffold
