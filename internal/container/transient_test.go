// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"testing"
)

func TestIsTransientError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "wrapped context deadline", err: fmt.Errorf("push failed: %w", context.DeadlineExceeded), want: false},
		{name: "generic error", err: errors.New("Dockerfile not found"), want: false},
		{name: "denied", err: errors.New("denied: requested access to the resource is denied"), want: false},
		{name: "could not resolve host", err: errors.New("Could not resolve host: registry-1.docker.io"), want: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "tls timeout", err: errors.New("net/http: TLS handshake timeout"), want: true},
		{name: "registry throttling", err: errors.New("toomanyrequests: rate limit exceeded"), want: true},
		{name: "registry unavailable", err: fmt.Errorf("exit status 1: %s", "received unexpected HTTP status: 503 Service Unavailable"), want: true},
		{name: "overlay mount", err: errors.New("error creating overlay mount to /var/lib/containers"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransientError(tt.err); got != tt.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientError_ExitCodes(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	if IsTransientError(newExitError(t, 1)) {
		t.Error("exit code 1 should not be transient")
	}
	if !IsTransientError(fmt.Errorf("build failed: %w", newExitError(t, 125))) {
		t.Error("exit code 125 should be transient")
	}
}

// newExitError creates an *exec.ExitError with the given exit code by running
// a shell that exits with it.
func newExitError(t *testing.T, code int) *exec.ExitError {
	t.Helper()
	err := exec.CommandContext(context.Background(), "sh", "-c", fmt.Sprintf("exit %d", code)).Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit error, got %v", err)
	}
	return exitErr
}
