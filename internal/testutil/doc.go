// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that fail the test
// on setup errors instead of returning them.
//
// Helpers cover environment variables (MustSetenv, MustUnsetenv, SetHomeDir),
// file trees (WriteFiles, ReadFiles) and container test throttling
// (ContainerSemaphore).
package testutil
