package vault

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/clock"
	code_data "github.com/code-payments/code-timelock/pkg/code/data"
	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/lock/local"
)

// serializationFailingProvider aborts transactions with a serialization failure
// before running them while failures is positive, and records the isolation
// level of every transaction
type serializationFailingProvider struct {
	code_data.Provider

	mu         sync.Mutex
	failures   int
	isolations []sql.IsolationLevel
}

func (p *serializationFailingProvider) ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	p.isolations = append(p.isolations, isolation)
	fail := p.failures > 0
	if fail {
		p.failures--
	}
	p.mu.Unlock()

	if fail {
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	}
	return p.Provider.ExecuteInTx(ctx, isolation, fn)
}

func TestTransitions_RetrySerializationFailures(t *testing.T) {
	env := setup(t, &testOverrides{})
	env.fund(t, "user", tenTokens)
	env.approve(t, "user", tenTokens)

	data := &serializationFailingProvider{Provider: env.data, failures: 2}
	v := New(nil, data, env.clock, local.NewLockManager(), withManualTestOverrides(&testOverrides{}))

	record, err := v.Lock(env.ctx, "user", tenTokens, 5)
	require.NoError(t, err)
	assert.Equal(t, []sql.IsolationLevel{sql.LevelSerializable, sql.LevelSerializable, sql.LevelSerializable}, data.isolations)
	env.assertBalance(t, "user", 0)
	env.assertBalance(t, env.address(), tenTokens)

	env.setTime(t, 5)

	data.failures = 1
	data.isolations = nil

	withdrawn, err := v.Withdraw(env.ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, record.LockId, withdrawn.LockId)
	assert.Equal(t, []sql.IsolationLevel{sql.LevelSerializable, sql.LevelSerializable}, data.isolations)
	env.assertBalance(t, "user", tenTokens)
	env.assertBalance(t, env.address(), 0)
}

func TestLock_InvalidRecordMovesNoTokens(t *testing.T) {
	data := code_data.NewTestDataProvider()
	v := New(nil, data, clock.NewManual(time.Time{}), local.NewLockManager(), withManualTestOverrides(&testOverrides{}))

	ctx := context.Background()
	address := v.Address(ctx)
	require.NoError(t, data.MintTokens(ctx, "user", tenTokens))
	require.NoError(t, data.ApproveTokens(ctx, "user", address, tenTokens))

	_, err := v.Lock(ctx, "user", tenTokens, 5)
	assert.ErrorIs(t, err, timelock.ErrInvalidTimelock)
	assert.False(t, IsRejection(err))

	balance, err := data.GetTokenBalance(ctx, "user")
	require.NoError(t, err)
	assert.EqualValues(t, tenTokens, balance)

	balance, err = data.GetTokenBalance(ctx, address)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)

	allowance, err := data.GetTokenAllowance(ctx, "user", address)
	require.NoError(t, err)
	assert.EqualValues(t, tenTokens, allowance)

	state, err := v.GetLock(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state.State)
}
