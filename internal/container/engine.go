// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
var ErrEngineNotAvailable = errors.New("container engine not available")

type (
	// Engine defines the container operations temploy needs to deploy a project.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available checks if the engine is usable on this system.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)
		// Build builds an image from a Dockerfile.
		Build(ctx context.Context, opts BuildOptions) error
		// ImageExists reports whether an image is present locally.
		ImageExists(ctx context.Context, image string) (bool, error)
		// Push pushes an image to its registry.
		Push(ctx context.Context, image string, out io.Writer) error
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Dockerfile is the path to the Dockerfile, relative to ContextDir
		// unless absolute.
		Dockerfile string
		// Tag is the image tag.
		Tag string
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
		// NoCache disables the build cache.
		NoCache bool
		// Stdout receives build output.
		Stdout io.Writer
		// Stderr receives build errors.
		Stderr io.Writer
	}

	// EngineType identifies the container engine type.
	EngineType string

	// EngineNotAvailableError is returned when no usable engine is found.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// ParseEngineType validates a configured engine name.
func ParseEngineType(s string) (EngineType, error) {
	switch t := EngineType(s); t {
	case EngineTypeDocker, EngineTypePodman:
		return t, nil
	default:
		return "", fmt.Errorf("unknown container engine type: %q (valid: docker, podman)", s)
	}
}

// NewEngine returns the preferred engine, or the other one when the
// preferred engine is not available.
func NewEngine(preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	docker := func() Engine { return NewDockerEngine(opts...) }
	podman := func() Engine { return NewPodmanEngine(opts...) }

	var candidates []func() Engine
	switch preferredType {
	case EngineTypeDocker:
		candidates = []func() Engine{docker, podman}
	case EngineTypePodman:
		candidates = []func() Engine{podman, docker}
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}

	for _, candidate := range candidates {
		if engine := candidate(); engine.Available() {
			return engine, nil
		}
	}

	return nil, &EngineNotAvailableError{
		Engine: string(preferredType),
		Reason: fmt.Sprintf("%s is not installed or not accessible, and the fallback engine is also not available", preferredType),
	}
}

// AutoDetectEngine returns the first available engine, trying Docker first.
func AutoDetectEngine(opts ...BaseCLIEngineOption) (Engine, error) {
	engine, err := NewEngine(EngineTypeDocker, opts...)
	if err != nil {
		return nil, &EngineNotAvailableError{
			Engine: "any",
			Reason: "no container engine (docker or podman) is available on this system",
		}
	}
	return engine, nil
}
