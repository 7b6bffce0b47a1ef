// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
	"time"
)

type (
	// PushPolicy controls how often PushWithRetry tries a push.
	PushPolicy struct {
		// Attempts is the total number of pushes, at least one.
		Attempts int
		// Backoff is the first wait; every further wait doubles it.
		Backoff time.Duration
		// OnRetry, when set, is called before each repeated attempt with the
		// 1-based attempt number and the error that triggered it.
		OnRetry func(attempt int, err error)
	}

	pusher interface {
		Push(ctx context.Context, image string, out io.Writer) error
	}
)

// PushWithRetry pushes image with engine, repeating the push while it fails
// with a transient error (see IsTransientError). A permanent error is
// returned at once; after the last attempt the last error is returned.
func PushWithRetry(ctx context.Context, engine pusher, image string, out io.Writer, policy PushPolicy) error {
	wait := policy.Backoff
	attempts := max(policy.Attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, err)
			}
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return fmt.Errorf("push of %s aborted: %w", image, sleepErr)
			}
			wait *= 2
		}

		if err = engine.Push(ctx, image, out); err == nil || !IsTransientError(err) {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
