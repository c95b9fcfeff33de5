package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/clock"
	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
	"github.com/code-payments/code-timelock/pkg/database/query"
)

func TestListLocks_Pagination(t *testing.T) {
	ctx := context.Background()

	config := defaultConfig
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	env := newSimulatedEnvironment(&config, clk)

	vaultAddress := env.vault.Address(ctx)
	for i := 0; i < 3; i++ {
		depositor := fmt.Sprintf("depositor%d", i)
		require.NoError(t, env.data.MintTokens(ctx, depositor, token.ToQuarks(1)))
		require.NoError(t, env.data.ApproveTokens(ctx, depositor, vaultAddress, token.MaxAllowance))
		_, err := env.vault.Lock(ctx, depositor, token.ToQuarks(1), uint64(i))
		require.NoError(t, err)
	}
	require.NoError(t, clk.Advance(time.Second))

	var out bytes.Buffer
	require.NoError(t, listLocks(ctx, env, &out, timelock.StateLocked, query.EmptyCursor, 2, query.Ascending))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "depositor0")
	assert.Contains(t, lines[0], "withdrawable")
	assert.Contains(t, lines[1], "depositor1")
	assert.Contains(t, lines[1], "withdrawable")
	require.True(t, strings.HasPrefix(lines[2], "next cursor: "))

	cursor, err := query.CursorFromBase58(strings.TrimPrefix(lines[2], "next cursor: "))
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, listLocks(ctx, env, &out, timelock.StateLocked, cursor, 2, query.Ascending))

	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "depositor2")
	assert.Contains(t, lines[0], "\tlocked")

	out.Reset()
	require.NoError(t, listLocks(ctx, env, &out, timelock.StateWithdrawn, query.EmptyCursor, 2, query.Ascending))
	assert.Equal(t, "no withdrawn locks\n", out.String())
}

func TestParseState(t *testing.T) {
	state, err := parseState("locked")
	require.NoError(t, err)
	assert.Equal(t, timelock.StateLocked, state)

	state, err = parseState("withdrawn")
	require.NoError(t, err)
	assert.Equal(t, timelock.StateWithdrawn, state)

	_, err = parseState("pending")
	assert.Error(t, err)
}

func TestListCmd_InvalidFlags(t *testing.T) {
	_, err := runCmd(t, "list", "--state", "pending")
	assert.Error(t, err)

	_, err = runCmd(t, "list", "--cursor", "0OIl")
	assert.Error(t, err)

	_, err = runCmd(t, "list", "--order", "sideways")
	assert.Error(t, err)

	out, err := runCmd(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no locked locks")
}
