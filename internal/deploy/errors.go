// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"errors"
	"fmt"
)

const (
	StepBuild Step = "build"
	StepPush  Step = "push"
	StepCloud Step = "cloud deploy"
)

var (
	// ErrInvalidDeploymentPath is the sentinel error wrapped by InvalidDeploymentPathError.
	ErrInvalidDeploymentPath = errors.New("invalid deployment path")
	// ErrDockerfileNotFound is the sentinel error wrapped by DockerfileNotFoundError.
	ErrDockerfileNotFound = errors.New("dockerfile not found")
	// ErrImageNotFound is returned when the build is skipped but the image is missing.
	ErrImageNotFound = errors.New("image not found")

	// ErrBuild is wrapped by a StepError for the image build.
	ErrBuild = errors.New("image build failed")
	// ErrPush is wrapped by a StepError for the image push.
	ErrPush = errors.New("image push failed")
	// ErrCloudDeploy is wrapped by a StepError for the cloud CLI run.
	ErrCloudDeploy = errors.New("cloud deploy failed")
)

type (
	// Step names a deployment stage.
	Step string

	// InvalidDeploymentPathError is returned when the project path is
	// missing or not a directory.
	InvalidDeploymentPathError struct {
		Path string
	}

	// DockerfileNotFoundError is returned when the resolved Dockerfile does not exist.
	DockerfileNotFoundError struct {
		Path string
	}

	// StepError is returned when a deployment stage fails. LogPath names
	// the file holding the stage's output, when there is one.
	StepError struct {
		Step    Step
		LogPath string
		Err     error
	}
)

func (e *InvalidDeploymentPathError) Error() string {
	return fmt.Sprintf("invalid deployment path %q: not an existing directory", e.Path)
}

func (e *InvalidDeploymentPathError) Unwrap() error { return ErrInvalidDeploymentPath }

func (e *DockerfileNotFoundError) Error() string {
	return fmt.Sprintf("dockerfile %q not found", e.Path)
}

func (e *DockerfileNotFoundError) Unwrap() error { return ErrDockerfileNotFound }

func (e *StepError) Error() string {
	if e.LogPath == "" {
		return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed (see %s): %v", e.Step, e.LogPath, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Step.sentinel(), e.Err}
}

func (s Step) sentinel() error {
	switch s {
	case StepBuild:
		return ErrBuild
	case StepPush:
		return ErrPush
	default:
		return ErrCloudDeploy
	}
}
