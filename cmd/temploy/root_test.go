// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"
)

func TestGetVersionString(t *testing.T) {
	// mutates package-level build variables
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "v1.2.0", "abc123", "2026-01-02"
	if got, want := getVersionString(), "v1.2.0 (commit: abc123, built: 2026-01-02)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handleError(&buf, fang.Styles{}, &ExitError{Code: 1, Err: errors.New("already shown")})
	if buf.Len() != 0 {
		t.Errorf("ExitError must not be printed again, got %q", buf.String())
	}

	handleError(&buf, fang.Styles{}, errors.New(`unknown flag: --nope`))
	if !strings.Contains(buf.String(), "unknown flag: --nope") {
		t.Errorf("cobra errors must be printed, got %q", buf.String())
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}))
	for _, name := range []string{"generate", "deploy", "config"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
