package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
)

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("lock acquisition timed out")

// TimeoutError reports that a resource stayed locked longer than the caller was willing to wait.
type TimeoutError struct {
	Resource string
	Waited   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lock on %s not acquired within %s", e.Resource, e.Waited)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// IsTimeout reports whether err is (or wraps) a lock timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

const retryDelay = 10 * time.Millisecond

// Locker serializes writers inside the process with a weighted semaphore and, when a lock
// file is configured, across processes with an advisory flock on that file.
type Locker struct {
	resource string
	timeout  time.Duration
	gate     *semaphore.Weighted
	file     *flock.Flock
}

// NewLocker builds a locker for resource. An empty lockPath gives a process-only lock.
func NewLocker(resource string, lockPath string, timeout time.Duration) *Locker {
	l := &Locker{
		resource: resource,
		timeout:  timeout,
		gate:     semaphore.NewWeighted(1),
	}
	if lockPath != "" {
		l.file = flock.New(lockPath)
	}
	return l
}

// Timeout is the bounded wait applied by Acquire.
func (l *Locker) Timeout() time.Duration {
	return l.timeout
}

// Acquire blocks until the lock is held, the timeout elapses, or ctx is done.
// The returned release func must be called exactly once.
func (l *Locker) Acquire(ctx context.Context) (func(), error) {
	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.gate.Acquire(waitCtx, 1); err != nil {
		return nil, l.waitError(ctx, start)
	}

	if l.file != nil {
		locked, err := l.file.TryLockContext(waitCtx, retryDelay)
		if err != nil || !locked {
			l.gate.Release(1)
			if err != nil && waitCtx.Err() == nil {
				return nil, fmt.Errorf("lock %s: %w", l.resource, err)
			}
			return nil, l.waitError(ctx, start)
		}
	}

	return func() {
		if l.file != nil {
			if err := l.file.Unlock(); err != nil {
				slog.Error("Failed to release file lock", "resource", l.resource, "error", err)
			}
		}
		l.gate.Release(1)
	}, nil
}

func (l *Locker) waitError(parent context.Context, start time.Time) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return &TimeoutError{Resource: l.resource, Waited: time.Since(start).Round(time.Millisecond)}
}
