package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/code/data/token"
)

func RunTests(t *testing.T, s token.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s token.Store){
		testMintAndBalance,
		testTransfer,
		testApproveAndTransferFrom,
		testInfiniteAllowance,
		testFailedTransfersLeaveLedgerUnchanged,
		testInvalidInputs,
	} {
		tf(t, s)
		teardown()
	}
}

func testMintAndBalance(t *testing.T, s token.Store) {
	t.Run("testMintAndBalance", func(t *testing.T) {
		ctx := context.Background()

		balance, err := s.BalanceOf(ctx, "owner")
		require.NoError(t, err)
		assert.Zero(t, balance)

		require.NoError(t, s.Mint(ctx, "owner", 100))
		require.NoError(t, s.Mint(ctx, "owner", 23))

		balance, err = s.BalanceOf(ctx, "owner")
		require.NoError(t, err)
		assert.EqualValues(t, 123, balance)

		assert.Equal(t, token.ErrBalanceOverflow, s.Mint(ctx, "owner", token.MaxAmount))

		balance, err = s.BalanceOf(ctx, "owner")
		require.NoError(t, err)
		assert.EqualValues(t, 123, balance)
	})
}

func testTransfer(t *testing.T, s token.Store) {
	t.Run("testTransfer", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Mint(ctx, "owner", 100))

		require.NoError(t, s.Transfer(ctx, "owner", "user", 40))
		assertBalance(t, s, "owner", 60)
		assertBalance(t, s, "user", 40)

		require.NoError(t, s.Transfer(ctx, "user", "user", 40))
		assertBalance(t, s, "user", 40)

		assert.Equal(t, token.ErrInsufficientBalance, s.Transfer(ctx, "user", "owner", 41))
		assertBalance(t, s, "owner", 60)
		assertBalance(t, s, "user", 40)

		require.NoError(t, s.Transfer(ctx, "user", "owner", 40))
		assertBalance(t, s, "owner", 100)
		assertBalance(t, s, "user", 0)
	})
}

func testApproveAndTransferFrom(t *testing.T, s token.Store) {
	t.Run("testApproveAndTransferFrom", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Mint(ctx, "user", 100))

		allowance, err := s.Allowance(ctx, "user", "vault")
		require.NoError(t, err)
		assert.Zero(t, allowance)

		assert.Equal(t, token.ErrInsufficientAllowance, s.TransferFrom(ctx, "vault", "user", "vault", 10))

		require.NoError(t, s.Approve(ctx, "user", "vault", 50))
		require.NoError(t, s.Approve(ctx, "user", "vault", 30))
		assertAllowance(t, s, "user", "vault", 30)

		require.NoError(t, s.TransferFrom(ctx, "vault", "user", "vault", 20))
		assertBalance(t, s, "user", 80)
		assertBalance(t, s, "vault", 20)
		assertAllowance(t, s, "user", "vault", 10)

		// Allowance is checked ahead of balance
		assert.Equal(t, token.ErrInsufficientAllowance, s.TransferFrom(ctx, "vault", "user", "vault", 11))

		// Allowances are scoped to the spender
		assert.Equal(t, token.ErrInsufficientAllowance, s.TransferFrom(ctx, "other", "user", "other", 1))

		require.NoError(t, s.TransferFrom(ctx, "vault", "user", "vault", 10))
		assertAllowance(t, s, "user", "vault", 0)
		assertBalance(t, s, "user", 70)
		assertBalance(t, s, "vault", 30)
	})
}

func testInfiniteAllowance(t *testing.T, s token.Store) {
	t.Run("testInfiniteAllowance", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Mint(ctx, "user", 100))
		require.NoError(t, s.Approve(ctx, "user", "vault", token.MaxAllowance))

		for i := 0; i < 4; i++ {
			require.NoError(t, s.TransferFrom(ctx, "vault", "user", "vault", 25))
			assertAllowance(t, s, "user", "vault", token.MaxAllowance)
		}
		assertBalance(t, s, "user", 0)
		assertBalance(t, s, "vault", 100)
	})
}

func testFailedTransfersLeaveLedgerUnchanged(t *testing.T, s token.Store) {
	t.Run("testFailedTransfersLeaveLedgerUnchanged", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Mint(ctx, "user", 10))
		require.NoError(t, s.Approve(ctx, "user", "vault", 50))

		assert.Equal(t, token.ErrInsufficientBalance, s.TransferFrom(ctx, "vault", "user", "vault", 11))
		assertBalance(t, s, "user", 10)
		assertBalance(t, s, "vault", 0)
		assertAllowance(t, s, "user", "vault", 50)

		require.NoError(t, s.Mint(ctx, "vault", token.MaxAmount))
		assert.Equal(t, token.ErrBalanceOverflow, s.TransferFrom(ctx, "vault", "user", "vault", 10))
		assertBalance(t, s, "user", 10)
		assertBalance(t, s, "vault", token.MaxAmount)
		assertAllowance(t, s, "user", "vault", 50)
	})
}

func testInvalidInputs(t *testing.T, s token.Store) {
	t.Run("testInvalidInputs", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, token.ErrInvalidAmount, s.Mint(ctx, "user", 0))
		assert.Equal(t, token.ErrInvalidAccount, s.Mint(ctx, "", 1))
		assert.Equal(t, token.ErrInvalidAmount, s.Transfer(ctx, "user", "vault", 0))
		assert.Equal(t, token.ErrInvalidAccount, s.Transfer(ctx, "user", "", 1))
		assert.Equal(t, token.ErrInvalidAmount, s.TransferFrom(ctx, "vault", "user", "vault", 0))
		assert.Equal(t, token.ErrInvalidAccount, s.TransferFrom(ctx, "", "user", "vault", 1))
		assert.Equal(t, token.ErrInvalidAccount, s.Approve(ctx, "user", "", 1))
		assert.Equal(t, token.ErrInvalidAmount, s.Approve(ctx, "user", "vault", token.MaxAllowance+1))

		_, err := s.BalanceOf(ctx, "")
		assert.Equal(t, token.ErrInvalidAccount, err)
		_, err = s.Allowance(ctx, "", "vault")
		assert.Equal(t, token.ErrInvalidAccount, err)
	})
}

func assertBalance(t *testing.T, s token.Store, account string, expected uint64) {
	actual, err := s.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, expected, actual, "balance of %s", account)
}

func assertAllowance(t *testing.T, s token.Store, owner, spender string, expected uint64) {
	actual, err := s.Allowance(context.Background(), owner, spender)
	require.NoError(t, err)
	assert.Equal(t, expected, actual, "allowance of %s for %s", spender, owner)
}
