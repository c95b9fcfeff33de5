package sync

import (
	"context"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
//
// Locks are not re-entrant, and unrelated keys may share a stripe.
type StripedLock struct {
	locks    []chan struct{}
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	locks := make([]chan struct{}, stripes)
	for i := range locks {
		locks[i] = make(chan struct{}, 1)
	}

	return &StripedLock{
		locks:    locks,
		hashRing: newRing(stripes, hashEntriesPerLock),
	}
}

// Lock blocks until the stripe for key is acquired or ctx is done. The returned
// function releases the stripe and must be called exactly once.
func (l *StripedLock) Lock(ctx context.Context, key []byte) (func(), error) {
	stripe := l.locks[l.hashRing.shard(key)]

	select {
	case stripe <- struct{}{}:
		return func() { <-stripe }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
