// SPDX-License-Identifier: MPL-2.0

// Package container wraps the Docker and Podman CLIs behind the Engine
// interface used by the deploy subsystem.
//
// Both engines embed BaseCLIEngine, which builds argument lists and creates
// commands through an injectable ExecCommandFunc. NewEngine selects an engine
// by preference with fallback to the other one; AutoDetectEngine picks
// whichever is installed.
package container
