// SPDX-License-Identifier: MPL-2.0

package container

import "context"

// PodmanEngine implements the Engine interface using Podman CLI.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path := lookPath("podman")
	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, append([]BaseCLIEngineOption{WithName(string(EngineTypePodman))}, opts...)...),
	}
}

// Available checks if Podman is available.
func (e *PodmanEngine) Available() bool {
	return e.answersVersion("{{.Version}}")
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	return e.version(ctx, "{{.Version}}")
}

// ImageExists checks if an image exists.
func (e *PodmanEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	err := e.RunCommandStatus(ctx, "image", "exists", image)
	return err == nil, nil
}
