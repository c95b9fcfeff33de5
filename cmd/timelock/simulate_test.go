package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulate_DefaultScenario(t *testing.T) {
	out, err := runCmd(t, "simulate", "--now", "1700000000")
	require.NoError(t, err)

	assert.Contains(t, out, "t=0    funded user with 10.000000 tokens")
	assert.Contains(t, out, "t=2    locked 10.000000 tokens for 5 seconds")
	assert.Contains(t, out, "t=6    withdraw rejected: unlock time has not elapsed")
	assert.Contains(t, out, "t=8    lock is withdrawable")
	assert.Contains(t, out, "t=8    withdrew 10.000000 tokens, balance is 10.000000")
	assert.Contains(t, out, "skipped 1000 seconds")
}

func TestSimulate_ZeroDelay(t *testing.T) {
	out, err := runCmd(t, "simulate", "--delay", "0", "--amount", "0.5")
	require.NoError(t, err)

	assert.NotContains(t, out, "withdraw rejected")
	assert.Contains(t, out, "withdrew 0.500000 tokens")
}

func TestSimulate_InvalidInputs(t *testing.T) {
	_, err := runCmd(t, "simulate", "--amount", "abc")
	assert.Error(t, err)

	_, err = runCmd(t, "simulate", "--amount", "0")
	assert.Error(t, err)

	_, err = runCmd(t, "simulate", "--lock-at", "-1")
	assert.Error(t, err)
}

func TestCommands_ReadOnlyWithoutDatabase(t *testing.T) {
	out, err := runCmd(t, "status", "user")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "user: unlocked"))

	out, err = runCmd(t, "balance")
	require.NoError(t, err)
	assert.Contains(t, out, ": 0.000000")
}

func TestCommands_StateChangesRequireDatabase(t *testing.T) {
	for _, args := range [][]string{
		{"init-db"},
		{"fund", "user", "1.5"},
		{"approve", "user", "--infinite"},
		{"lock", "user", "10", "5"},
		{"withdraw", "user"},
		{"watch"},
	} {
		out, err := runCmd(t, args...)
		assert.ErrorIs(t, err, errNoDatabase, args[0])
		assert.Contains(t, out, "simulate", args[0])
	}

	// Argument errors are reported before the database is required
	_, err := runCmd(t, "approve", "user")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNoDatabase)
}
