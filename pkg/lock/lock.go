package lock

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrLockLost indicates a lock was lost between acquiring it and using it
var ErrLockLost = errors.New("lock lost before use")

// Manager creates and manages named locks. The vault takes one lock per
// depositor for the duration of a state transition.
type Manager interface {
	// Create creates an unlocked DistributedLock for a specific key.
	Create(ctx context.Context, name string) (DistributedLock, error)
}

// DistributedLock is a handle to a lock that may span across multiple
// processes, depending on the Manager implementation.
type DistributedLock interface {
	// Acquire attempts to acquire the lock, blocking until the lock has been
	// successfully acquired or ctx is done.
	//
	// The returned channel is a channel that will be closed when the lock is lost.
	// The lock can be lost when Unlock() is called, or the underlying
	// implementation detects that the lock _might_ have been lost.
	Acquire(ctx context.Context) (<-chan struct{}, error)

	// Unlock unlocks the lock, if the lock is held.
	//
	// Unlock is idempotent.
	Unlock(ctx context.Context) error

	// IsLocked returns whether the lock is held by the process/manager.
	IsLocked() bool
}

// WithLock runs fn while holding the named lock. fn is not run if the lock
// cannot be acquired within acquireTimeout, or was lost before fn started. A
// zero acquireTimeout waits until ctx is done.
func WithLock(ctx context.Context, manager Manager, name string, acquireTimeout time.Duration, fn func(ctx context.Context) error) error {
	l, err := manager.Create(ctx, name)
	if err != nil {
		return errors.Wrap(err, "error creating lock")
	}

	acquireCtx := ctx
	if acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, acquireTimeout)
		defer cancel()
	}

	lost, err := l.Acquire(acquireCtx)
	if err != nil {
		return errors.Wrap(err, "error acquiring lock")
	}
	defer l.Unlock(context.Background())

	select {
	case <-lost:
		return ErrLockLost
	default:
	}

	return fn(ctx)
}
