// SPDX-License-Identifier: MPL-2.0

// Package platform holds host-environment helpers: OS name constants and
// detection of application sandboxes (Flatpak, Snap) whose processes must
// reach host binaries such as docker or gcloud through a spawn helper.
package platform
