package local

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/lock"
)

func TestLocalLock_HappyPath(t *testing.T) {
	ctx := context.Background()
	m := NewLockManager()

	l, err := m.Create(ctx, "depositor")
	require.NoError(t, err)
	assert.False(t, l.IsLocked())

	lostCh, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, l.IsLocked())

	_, err = l.Acquire(ctx)
	assert.Equal(t, ErrAlreadyAcquired, err)

	// A second handle for the same name blocks until the first is released
	other, err := m.Create(ctx, "depositor")
	require.NoError(t, err)

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = other.Acquire(timeoutCtx)
	assert.Equal(t, context.DeadlineExceeded, err)

	require.NoError(t, l.Unlock(ctx))
	require.NoError(t, l.Unlock(ctx))
	assert.False(t, l.IsLocked())

	select {
	case <-lostCh:
	default:
		t.Fatal("expected lost channel to be closed")
	}

	_, err = other.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, other.Unlock(ctx))
}

func TestWithLock_MutualExclusion(t *testing.T) {
	m := NewLockManager()

	var counter, maxConcurrent, current int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := lock.WithLock(context.Background(), m, "shared", 0, func(ctx context.Context) error {
				mu.Lock()
				current++
				if current > maxConcurrent {
					maxConcurrent = current
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				current--
				counter++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, counter)
	assert.Equal(t, 1, maxConcurrent)
}

func TestWithLock_AcquireTimeout(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	held, err := m.Create(ctx, "shared")
	require.NoError(t, err)
	_, err = held.Acquire(ctx)
	require.NoError(t, err)

	var ran bool
	err = lock.WithLock(ctx, m, "shared", 20*time.Millisecond, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)

	require.NoError(t, held.Unlock(ctx))

	err = lock.WithLock(ctx, m, "shared", 20*time.Millisecond, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
