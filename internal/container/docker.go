// SPDX-License-Identifier: MPL-2.0

package container

import "context"

// DockerEngine implements the Engine interface using Docker CLI.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(opts ...BaseCLIEngineOption) *DockerEngine {
	path := lookPath("docker")
	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, append([]BaseCLIEngineOption{WithName(string(EngineTypeDocker))}, opts...)...),
	}
}

// Available checks that the Docker daemon answers, not only that the CLI exists.
func (e *DockerEngine) Available() bool {
	return e.answersVersion("{{.Server.Version}}")
}

// Version returns the Docker server version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	return e.version(ctx, "{{.Server.Version}}")
}

// ImageExists checks if an image exists.
func (e *DockerEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	err := e.RunCommandStatus(ctx, "image", "inspect", image)
	return err == nil, nil
}
