// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/temploy/temploy/internal/issue"
	"github.com/temploy/temploy/pkg/platform"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine holds what Docker and Podman share: argument building
	// and command execution through the engine binary.
	BaseCLIEngine struct {
		name        string // engine name for error messages
		binaryPath  string // resolved at construction via exec.LookPath
		execCommand ExecCommandFunc
		sandbox     platform.Sandbox
	}
)

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithSandbox overrides sandbox detection. Commands of a sandboxed engine
// are run on the host through the sandbox's spawn helper.
func WithSandbox(sandbox platform.Sandbox) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.sandbox = sandbox
	}
}

// WithBinaryPath overrides the binary found on PATH.
func WithBinaryPath(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.binaryPath = path
	}
}

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		sandbox:     platform.DetectSandbox(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// BuildArgs constructs arguments for a container build command. Build args
// are emitted in key order so invocations are reproducible.
//
// Generated command: <binary> build [options] <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Dockerfile != "" {
		dockerfilePath := opts.Dockerfile
		if !filepath.IsAbs(dockerfilePath) && opts.ContextDir != "" {
			dockerfilePath = filepath.Join(opts.ContextDir, dockerfilePath)
		}
		args = append(args, "-f", dockerfilePath)
	}

	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}

	if opts.NoCache {
		args = append(args, "--no-cache")
	}

	keys := make([]string, 0, len(opts.BuildArgs))
	for k := range opts.BuildArgs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, opts.BuildArgs[k]))
	}

	args = append(args, opts.ContextDir)

	return args
}

// Build builds an image. Output is streamed to opts.Stdout and opts.Stderr.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	cmd := e.CreateCommand(ctx, e.BuildArgs(opts)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return buildContainerError(e.name, opts, err)
	}
	return nil
}

// Push pushes image to its registry, writing progress to out. The last line
// of output is kept in the error so registry failures can be classified.
func (e *BaseCLIEngine) Push(ctx context.Context, image string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	var captured bytes.Buffer
	w := io.MultiWriter(out, &captured)

	cmd := e.CreateCommand(ctx, "push", image)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		if last := lastLine(captured.String()); last != "" {
			err = fmt.Errorf("%w: %s", err, last)
		}
		return pushContainerError(e.name, image, err)
	}
	return nil
}

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	name, args := e.sandbox.HostCommand(e.binaryPath, args)
	return e.execCommand(ctx, name, args...)
}

// lookPath resolves an engine binary on PATH. Inside a sandbox the binary
// lives on the host, so the bare name is handed to the spawn helper.
func lookPath(name string) string {
	if platform.DetectSandbox() != platform.SandboxNone {
		return name
	}
	path, _ := exec.LookPath(name)
	return path
}

// answersVersion runs a version query and reports whether it succeeded.
func (e *BaseCLIEngine) answersVersion(format string) bool {
	if e.binaryPath == "" {
		return false
	}
	return e.RunCommandStatus(context.Background(), "version", "--format", format) == nil
}

func (e *BaseCLIEngine) version(ctx context.Context, format string) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", format)
	if err != nil {
		return "", fmt.Errorf("failed to get %s version: %w", e.name, err)
	}
	return strings.TrimSpace(out), nil
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func buildContainerError(engine string, opts BuildOptions, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("build container image").
		WithIssue(issue.ImageBuildFailedId)

	switch {
	case opts.Dockerfile != "":
		ctx.WithResource(opts.Dockerfile)
	case opts.ContextDir != "":
		ctx.WithResource(filepath.Join(opts.ContextDir, "Dockerfile"))
	case opts.Tag != "":
		ctx.WithResource(opts.Tag)
	}

	ctx.WithSuggestion("Check Dockerfile syntax for errors")
	ctx.WithSuggestion("Ensure base images are available (try: " + engine + " pull <base-image>)")

	return ctx.Wrap(cause).BuildError()
}

func pushContainerError(engine, image string, cause error) error {
	return issue.NewErrorContext().
		WithOperation("push container image").
		WithResource(image).
		WithSuggestion("Log in to the registry (try: " + engine + " login <registry>)").
		WithSuggestion("Check that the image name includes the registry host").
		Wrap(cause).
		BuildError()
}
