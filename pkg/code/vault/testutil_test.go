package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/clock"
	code_data "github.com/code-payments/code-timelock/pkg/code/data"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
	"github.com/code-payments/code-timelock/pkg/lock/local"
)

const tenTokens = 10 * token.QuarksPerToken

type testEnv struct {
	ctx   context.Context
	start time.Time
	clock *clock.Manual
	data  code_data.Provider
	vault *Vault
}

func setup(t *testing.T, overrides *testOverrides) *testEnv {
	start := time.Unix(1_700_000_000, 0)
	clk := clock.NewManual(start)
	data := code_data.NewTestDataProvider()

	return &testEnv{
		ctx:   context.Background(),
		start: start,
		clock: clk,
		data:  data,
		vault: New(nil, data, clk, local.NewLockManager(), withManualTestOverrides(overrides)),
	}
}

func (e *testEnv) address() string {
	return e.vault.Address(e.ctx)
}

func (e *testEnv) fund(t *testing.T, account string, quarks uint64) {
	require.NoError(t, e.data.MintTokens(e.ctx, account, quarks))
}

func (e *testEnv) approve(t *testing.T, owner string, quarks uint64) {
	require.NoError(t, e.data.ApproveTokens(e.ctx, owner, e.address(), quarks))
}

// setTime moves the clock to start + offset seconds
func (e *testEnv) setTime(t *testing.T, offset int64) {
	require.NoError(t, e.clock.Set(e.start.Add(time.Duration(offset)*time.Second)))
}

func (e *testEnv) getBalance(t *testing.T, account string) uint64 {
	balance, err := e.data.GetTokenBalance(e.ctx, account)
	require.NoError(t, err)
	return balance
}

func (e *testEnv) assertBalance(t *testing.T, account string, expected uint64) {
	assert.Equal(t, expected, e.getBalance(t, account))
}

func (e *testEnv) assertLockState(t *testing.T, depositor string, expectedState DepositorState, expectedAmount uint64) {
	state, err := e.vault.GetLock(e.ctx, depositor)
	require.NoError(t, err)
	assert.Equal(t, expectedState, state.State)
	assert.Equal(t, expectedAmount, state.Amount)
}
