// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/temploy/temploy/pkg/platform"
)

// helperCommand runs TestHelperProcess in place of the named program.
func helperCommand(exitCode string) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "GO_HELPER_EXIT_CODE=" + exitCode}
		return cmd
	}
}

// TestHelperProcess is not a real test. It echoes its arguments and working
// directory, then exits with GO_HELPER_EXIT_CODE.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	wd, _ := os.Getwd()
	fmt.Fprintf(os.Stdout, "args=%s\n", strings.Join(args, " "))
	fmt.Fprintf(os.Stderr, "dir=%s\n", wd)

	if os.Getenv("GO_HELPER_EXIT_CODE") != "0" {
		os.Exit(1)
	}
	os.Exit(0)
}

func TestExecRunner(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var out bytes.Buffer
	runner := ExecRunner{ExecCommand: helperCommand("0")}
	err := runner.Run(context.Background(), Command{
		Name:   "gcloud",
		Args:   []string{"run", "deploy", "svc"},
		Dir:    dir,
		Stdout: &out,
		Stderr: &out,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "args=gcloud run deploy svc") {
		t.Errorf("unexpected output %q", got)
	}
	if !strings.Contains(got, "dir=") {
		t.Errorf("working directory not reported: %q", got)
	}
}

func TestExecRunner_Failure(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	runner := ExecRunner{ExecCommand: helperCommand("1")}
	err := runner.Run(context.Background(), Command{Name: "gcloud", Args: []string{"run"}, Stdout: &out, Stderr: &out})
	if err == nil {
		t.Fatal("expected an error")
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Errorf("Run() error = %v, want exit status 1", err)
	}
	if !strings.Contains(err.Error(), "gcloud") {
		t.Errorf("error should name the command: %v", err)
	}
}

func TestExecRunner_Sandbox(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	runner := ExecRunner{ExecCommand: helperCommand("0"), Sandbox: platform.SandboxFlatpak}
	err := runner.Run(context.Background(), Command{Name: "gcloud", Args: []string{"version"}, Stdout: &out, Stderr: &out})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "args=flatpak-spawn --host gcloud version") {
		t.Errorf("command not routed to the host: %q", out.String())
	}
}
