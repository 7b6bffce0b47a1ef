// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// transientMarkers are output fragments of engine and registry failures that
// usually succeed on a second try.
var transientMarkers = []string{
	// DNS and connection failures while pulling base images or pushing
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	"connection reset by peer",
	"i/o timeout",
	"TLS handshake timeout",
	// registry throttling and hiccups
	"toomanyrequests",
	"429 Too Many Requests",
	"502 Bad Gateway",
	"503 Service Unavailable",
	// storage driver races on rootless podman
	"error creating overlay mount",
	"error mounting layer",
}

// IsTransientError reports whether err is a container engine failure worth
// retrying. Context cancellation and deadlines are never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Exit code 125 is a generic engine failure (daemon or storage trouble).
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
