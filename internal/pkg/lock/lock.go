// Package lock provides named mutual exclusion, in-process or across replicas via Redis.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Acquire when the lock stayed busy for the whole wait.
var ErrTimeout = errors.New("lock: wait timed out")

// Release frees a held lock. Calling it more than once is a no-op.
type Release func()

type Locker interface {
	// TryAcquire takes the lock if it is free and reports whether it did.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error)
	// Acquire blocks up to wait for the lock. A non-positive wait blocks until ctx is done.
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Release, error)
}
