package vault

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsOncePerLock(t *testing.T) {
	env := setup(t, &testOverrides{})
	watcher := NewWatcher(env.vault)

	for _, depositor := range []string{"alice", "bob"} {
		env.fund(t, depositor, 100)
		env.approve(t, depositor, 100)
	}

	alice, err := env.vault.Lock(env.ctx, "alice", 100, 5)
	require.NoError(t, err)
	bob, err := env.vault.Lock(env.ctx, "bob", 100, 10)
	require.NoError(t, err)

	withdrawable, err := watcher.Poll(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, withdrawable)

	env.setTime(t, 5)
	withdrawable, err = watcher.Poll(env.ctx)
	require.NoError(t, err)
	require.Len(t, withdrawable, 1)
	assert.Equal(t, alice.LockId, withdrawable[0].LockId)

	withdrawable, err = watcher.Poll(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, withdrawable)

	env.setTime(t, 20)
	withdrawable, err = watcher.Poll(env.ctx)
	require.NoError(t, err)
	require.Len(t, withdrawable, 1)
	assert.Equal(t, bob.LockId, withdrawable[0].LockId)

	// Withdrawn locks are forgotten, and a relock is a new lock
	_, err = env.vault.Withdraw(env.ctx, "alice")
	require.NoError(t, err)
	_, err = watcher.Poll(env.ctx)
	require.NoError(t, err)
	assert.Len(t, watcher.notified, 1)

	relock, err := env.vault.Lock(env.ctx, "alice", 100, 0)
	require.NoError(t, err)
	withdrawable, err = watcher.Poll(env.ctx)
	require.NoError(t, err)
	require.Len(t, withdrawable, 1)
	assert.Equal(t, relock.LockId, withdrawable[0].LockId)
}

func TestWatcher_Pagination(t *testing.T) {
	env := setup(t, &testOverrides{watcherBatchSize: 2})
	watcher := NewWatcher(env.vault)

	for i := 0; i < 5; i++ {
		depositor := fmt.Sprintf("depositor-%d", i)
		env.fund(t, depositor, 100)
		env.approve(t, depositor, 100)

		_, err := env.vault.Lock(env.ctx, depositor, 100, 1)
		require.NoError(t, err)
	}

	env.setTime(t, 1)
	withdrawable, err := watcher.Poll(env.ctx)
	require.NoError(t, err)
	assert.Len(t, withdrawable, 5)
}

func TestWatcher_Start(t *testing.T) {
	env := setup(t, &testOverrides{})
	watcher := NewWatcher(env.vault)

	ctx, cancel := context.WithTimeout(env.ctx, 100*time.Millisecond)
	defer cancel()

	err := watcher.Start(ctx, "@every 1s")
	assert.Equal(t, context.DeadlineExceeded, err)

	err = watcher.Start(env.ctx, "not a schedule")
	assert.Error(t, err)
}
