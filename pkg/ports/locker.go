package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a run lock.
type UnlockFunc func(ctx context.Context) error

// RunLocker serializes pipeline runs per key (typically the target
// branch), supporting the at-most-once publish policy across
// concurrently fired triggers.
type RunLocker interface {
	// Lock blocks until the lock for key is acquired, the context is
	// cancelled, or the TTL elapses (implementation specific).
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
