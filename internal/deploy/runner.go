// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/temploy/temploy/internal/container"
	"github.com/temploy/temploy/pkg/platform"
)

type (
	// Command is one external program invocation.
	Command struct {
		Name   string
		Args   []string
		Dir    string
		Stdout io.Writer
		Stderr io.Writer
	}

	// CommandRunner runs external programs. It is the seam tests use to
	// replace the cloud CLI.
	CommandRunner interface {
		Run(ctx context.Context, cmd Command) error
	}

	// ExecRunner runs commands as subprocesses.
	ExecRunner struct {
		// ExecCommand creates the process; nil means exec.CommandContext.
		ExecCommand container.ExecCommandFunc
		// Sandbox routes commands to the host when temploy is sandboxed.
		Sandbox platform.Sandbox
	}
)

// Run starts cmd and waits for it to finish.
func (r ExecRunner) Run(ctx context.Context, cmd Command) error {
	newCmd := r.ExecCommand
	if newCmd == nil {
		newCmd = exec.CommandContext
	}

	name, args := r.Sandbox.HostCommand(cmd.Name, cmd.Args)
	c := newCmd(ctx, name, args...)
	c.Dir = cmd.Dir
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr

	if err := c.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", cmd.Name, cmd.Args, err)
	}
	return nil
}
