// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the temploy CLI commands.
//
// The command tree (generate, deploy, config) is built around an App, the
// composition root holding the services each handler delegates to.
package cmd
