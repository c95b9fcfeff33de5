// Package etcd provides a lock.Manager backed by etcd, for deployments where
// several processes operate on the same postgres-backed vault.
package etcd

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	v3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/code-payments/code-timelock/pkg/lock"
)

type LockManager struct {
	log     *logrus.Entry
	client  *v3.Client
	rootKey string
	lockTTL int

	mu      sync.Mutex
	session *concurrency.Session
	closed  bool
}

// NewLockManager returns a manager whose locks live under rootKey. Locks held
// by a process are released by etcd once lockTTL elapses without the process
// keeping its session alive.
func NewLockManager(client *v3.Client, rootKey string, lockTTL time.Duration) (*LockManager, error) {
	// WithTTL() will default the TTL to 60 seconds if TTL <= 0 || TTL > 60 seconds.
	if lockTTL < time.Second || lockTTL > time.Minute {
		return nil, fmt.Errorf("invalid lock ttl: %s (must be [1s, 60s])", lockTTL)
	}

	lm := &LockManager{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "lock/etcd",
			"root": rootKey,
		}),
		client:  client,
		rootKey: rootKey,
		lockTTL: int(lockTTL.Round(time.Second).Seconds()),
	}

	if _, err := lm.getSession(); err != nil {
		return nil, err
	}
	return lm, nil
}

// getSession returns the current session, replacing it if it has expired
func (lm *LockManager) getSession() (*concurrency.Session, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.closed {
		return nil, fmt.Errorf("lock manager is closed")
	}

	if lm.session != nil {
		select {
		case <-lm.session.Done():
			lm.log.Info("lock session expired, recreating")
		default:
			return lm.session, nil
		}
	}

	session, err := concurrency.NewSession(
		lm.client,
		concurrency.WithTTL(lm.lockTTL),
		concurrency.WithContext(v3.WithRequireLeader(context.Background())),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd session: %w", err)
	}

	lm.session = session
	return session, nil
}

// Create implements lock.Manager.Create
func (lm *LockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	lm.mu.Lock()
	closed := lm.closed
	lm.mu.Unlock()

	if closed {
		return nil, fmt.Errorf("lock manager is closed")
	}

	return &Lock{
		log: lm.log.WithField("key", path.Join(lm.rootKey, name)),
		lm:  lm,
		key: path.Join(lm.rootKey, name),
	}, nil
}

// Close closes the lock manager, _and all locks held through it become unlocked_.
func (lm *LockManager) Close() {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.closed {
		return
	}
	lm.closed = true

	if lm.session != nil {
		if err := lm.session.Close(); err != nil {
			lm.log.WithError(err).Warn("failed to close etcd session")
		}
	}
}

type Lock struct {
	log *logrus.Entry
	lm  *LockManager
	key string

	mu     sync.Mutex
	mutex  *concurrency.Mutex
	stopCh chan struct{}
}

// Acquire implements lock.DistributedLock.Acquire
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex != nil {
		return nil, fmt.Errorf("lock already acquired")
	}

	session, err := l.lm.getSession()
	if err != nil {
		return nil, err
	}

	mutex := concurrency.NewMutex(session, l.key)
	if err := mutex.Lock(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.log.Debug("lock acquired")

	l.mutex = mutex
	l.stopCh = make(chan struct{})

	lostCh := make(chan struct{})
	go func(stopCh chan struct{}) {
		defer close(lostCh)

		select {
		case <-session.Done():
			l.log.Warn("session ended, lock lost")
		case <-stopCh:
		}
	}(l.stopCh)

	return lostCh, nil
}

// Unlock implements lock.DistributedLock.Unlock
func (l *Lock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex == nil {
		return nil
	}

	err := l.mutex.Unlock(ctx)
	close(l.stopCh)
	l.mutex = nil
	return err
}

// IsLocked implements lock.DistributedLock.IsLocked
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.mutex != nil
}
