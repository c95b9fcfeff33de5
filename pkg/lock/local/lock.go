// Package local provides an in-process lock.Manager for single-process
// deployments and tests.
package local

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/code-timelock/pkg/lock"
	code_sync "github.com/code-payments/code-timelock/pkg/sync"
)

const (
	defaultStripes = 1024
)

var (
	ErrAlreadyAcquired = errors.New("lock already acquired by this handle")
)

type manager struct {
	stripes *code_sync.StripedLock
}

// NewLockManager returns a lock.Manager whose locks are only exclusive within
// the current process. Locks are not re-entrant.
func NewLockManager() lock.Manager {
	return &manager{
		stripes: code_sync.NewStripedLock(defaultStripes),
	}
}

// Create implements lock.Manager.Create
func (m *manager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	return &localLock{
		manager: m,
		key:     []byte(name),
	}, nil
}

type localLock struct {
	manager *manager
	key     []byte

	mu     sync.Mutex
	unlock func()
	lostCh chan struct{}
}

// Acquire implements lock.DistributedLock.Acquire
func (l *localLock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	held := l.unlock != nil
	l.mu.Unlock()
	if held {
		return nil, ErrAlreadyAcquired
	}

	unlock, err := l.manager.stripes.Lock(ctx, l.key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.unlock = unlock
	l.lostCh = make(chan struct{})
	return l.lostCh, nil
}

// Unlock implements lock.DistributedLock.Unlock
func (l *localLock) Unlock(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.unlock == nil {
		return nil
	}

	close(l.lostCh)
	l.unlock()
	l.unlock = nil
	return nil
}

// IsLocked implements lock.DistributedLock.IsLocked
func (l *localLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.unlock != nil
}
