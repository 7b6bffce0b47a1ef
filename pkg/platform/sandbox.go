// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

const (
	// SandboxNone means temploy runs directly on the host.
	SandboxNone Sandbox = ""
	// SandboxFlatpak means temploy runs inside a Flatpak.
	SandboxFlatpak Sandbox = "flatpak"
	// SandboxSnap means temploy runs inside a Snap.
	SandboxSnap Sandbox = "snap"

	flatpakInfoPath = "/.flatpak-info"
)

// Sandbox identifies an application sandbox.
type Sandbox string

// detectOnce caches detection; the sandbox cannot change while the process runs.
var detectOnce = sync.OnceValue(func() Sandbox {
	return detect(os.Getenv, func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	})
})

// DetectSandbox returns the sandbox the current process runs in.
func DetectSandbox() Sandbox {
	return detectOnce()
}

// HostCommand rewrites a command so that it runs on the host when s is a
// sandbox. Outside a sandbox name and args are returned unchanged.
//
//	docker build .  ->  flatpak-spawn --host docker build .
func (s Sandbox) HostCommand(name string, args []string) (string, []string) {
	switch s {
	case SandboxFlatpak:
		return "flatpak-spawn", append([]string{"--host", name}, args...)
	case SandboxSnap:
		return "snap", append([]string{"run", "--shell", name}, args...)
	default:
		return name, args
	}
}

// detect checks Flatpak first since its marker file is authoritative.
func detect(getenv func(string) string, exists func(string) bool) Sandbox {
	if exists(flatpakInfoPath) {
		return SandboxFlatpak
	}
	if getenv("SNAP_NAME") != "" {
		return SandboxSnap
	}
	return SandboxNone
}
