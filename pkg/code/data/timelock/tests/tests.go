package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/database/query"
)

func RunTests(t *testing.T, s timelock.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s timelock.Store){
		testHappyPath,
		testOneActiveLockPerDepositor,
		testMarkWithdrawnErrors,
		testGetAllByState,
		testGetCountByState,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s timelock.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		start := time.Now()

		ctx := context.Background()

		expected := newLockedRecord("vault", "depositor")
		cloned := expected.Clone()

		// Validate the record initially doesn't exist

		_, err := s.GetActiveByDepositor(ctx, expected.Vault, expected.Depositor)
		assert.Equal(t, timelock.ErrTimelockNotFound, err)

		// Save the record

		require.NoError(t, s.Save(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.True(t, expected.LastUpdatedAt.After(start))

		actual, err := s.GetActiveByDepositor(ctx, expected.Vault, expected.Depositor)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
		assert.Equal(t, expected.Id, actual.Id)

		// Locks are scoped to a vault

		_, err = s.GetActiveByDepositor(ctx, "other-vault", expected.Depositor)
		assert.Equal(t, timelock.ErrTimelockNotFound, err)

		// Withdraw the lock

		withdrawnAt := time.Unix(1_700_000_100, 0)
		expected.WithdrawnAt = &withdrawnAt
		require.NoError(t, s.MarkWithdrawn(ctx, expected))
		assert.Equal(t, timelock.StateWithdrawn, expected.State)
		require.NotNil(t, expected.WithdrawnAt)
		assert.Equal(t, withdrawnAt.Unix(), expected.WithdrawnAt.Unix())
		assert.Equal(t, cloned.Amount, expected.Amount)
		assert.Equal(t, cloned.UnlockAt, expected.UnlockAt)

		_, err = s.GetActiveByDepositor(ctx, expected.Vault, expected.Depositor)
		assert.Equal(t, timelock.ErrTimelockNotFound, err)

		// Withdrawn records are retained as history

		withdrawn, err := s.GetAllByState(ctx, timelock.StateWithdrawn, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, withdrawn, 1)
		assert.Equal(t, expected.LockId, withdrawn[0].LockId)
		assert.Equal(t, timelock.StateWithdrawn, withdrawn[0].State)
	})
}

func testOneActiveLockPerDepositor(t *testing.T, s timelock.Store) {
	t.Run("testOneActiveLockPerDepositor", func(t *testing.T) {
		ctx := context.Background()

		first := newLockedRecord("vault", "depositor")
		require.NoError(t, s.Save(ctx, first))

		duplicate := newLockedRecord("vault", "depositor")
		assert.Equal(t, timelock.ErrActiveLockExists, s.Save(ctx, duplicate))

		count, err := s.GetCountByState(ctx, timelock.StateLocked)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		// Other depositors and other vaults are independent

		require.NoError(t, s.Save(ctx, newLockedRecord("vault", "other-depositor")))
		require.NoError(t, s.Save(ctx, newLockedRecord("other-vault", "depositor")))

		// Once withdrawn, the depositor can lock again

		withdrawnAt := time.Unix(1_700_000_100, 0)
		first.WithdrawnAt = &withdrawnAt
		require.NoError(t, s.MarkWithdrawn(ctx, first))

		relock := newLockedRecord("vault", "depositor")
		require.NoError(t, s.Save(ctx, relock))
		assert.NotEqual(t, first.Id, relock.Id)

		actual, err := s.GetActiveByDepositor(ctx, "vault", "depositor")
		require.NoError(t, err)
		assert.Equal(t, relock.LockId, actual.LockId)
	})
}

func testMarkWithdrawnErrors(t *testing.T, s timelock.Store) {
	t.Run("testMarkWithdrawnErrors", func(t *testing.T) {
		ctx := context.Background()

		withdrawnAt := time.Unix(1_700_000_100, 0)

		missing := newLockedRecord("vault", "depositor")
		missing.Id = 1000
		missing.WithdrawnAt = &withdrawnAt
		assert.Equal(t, timelock.ErrTimelockNotFound, s.MarkWithdrawn(ctx, missing))

		record := newLockedRecord("vault", "depositor")
		require.NoError(t, s.Save(ctx, record))

		noTimestamp := record.Clone()
		assert.Equal(t, timelock.ErrInvalidTimelock, s.MarkWithdrawn(ctx, noTimestamp))

		record.WithdrawnAt = &withdrawnAt
		require.NoError(t, s.MarkWithdrawn(ctx, record))

		again := record.Clone()
		assert.Equal(t, timelock.ErrStaleTimelockState, s.MarkWithdrawn(ctx, again))

		count, err := s.GetCountByState(ctx, timelock.StateWithdrawn)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testGetAllByState(t *testing.T, s timelock.Store) {
	t.Run("testGetAllByState", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByState(ctx, timelock.StateLocked, query.EmptyCursor, 10, query.Ascending)
		assert.Equal(t, timelock.ErrTimelockNotFound, err)

		var expected []*timelock.Record
		for i := 0; i < 5; i++ {
			record := newLockedRecord("vault", fmt.Sprintf("depositor-%d", i))
			require.NoError(t, s.Save(ctx, record))
			expected = append(expected, record)
		}

		withdrawnAt := time.Unix(1_700_000_100, 0)
		expected[2].WithdrawnAt = &withdrawnAt
		require.NoError(t, s.MarkWithdrawn(ctx, expected[2]))

		actual, err := s.GetAllByState(ctx, timelock.StateLocked, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 4)
		assert.Equal(t, expected[0].Id, actual[0].Id)
		assert.Equal(t, expected[1].Id, actual[1].Id)
		assert.Equal(t, expected[3].Id, actual[2].Id)
		assert.Equal(t, expected[4].Id, actual[3].Id)

		actual, err = s.GetAllByState(ctx, timelock.StateLocked, query.EmptyCursor, 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 4)
		assert.Equal(t, expected[4].Id, actual[0].Id)
		assert.Equal(t, expected[0].Id, actual[3].Id)

		actual, err = s.GetAllByState(ctx, timelock.StateLocked, query.EmptyCursor, 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, expected[0].Id, actual[0].Id)
		assert.Equal(t, expected[1].Id, actual[1].Id)

		actual, err = s.GetAllByState(ctx, timelock.StateLocked, query.ToCursor(actual[1].Id), 2, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, expected[3].Id, actual[0].Id)
		assert.Equal(t, expected[4].Id, actual[1].Id)

		_, err = s.GetAllByState(ctx, timelock.StateLocked, query.ToCursor(expected[4].Id), 2, query.Ascending)
		assert.Equal(t, timelock.ErrTimelockNotFound, err)

		actual, err = s.GetAllByState(ctx, timelock.StateLocked, query.ToCursor(expected[3].Id), 10, query.Descending)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, expected[1].Id, actual[0].Id)
		assert.Equal(t, expected[0].Id, actual[1].Id)

		actual, err = s.GetAllByState(ctx, timelock.StateWithdrawn, query.EmptyCursor, 10, query.Ascending)
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, expected[2].Id, actual[0].Id)
	})
}

func testGetCountByState(t *testing.T, s timelock.Store) {
	t.Run("testGetCountByState", func(t *testing.T) {
		ctx := context.Background()

		for _, state := range []timelock.State{timelock.StateLocked, timelock.StateWithdrawn} {
			count, err := s.GetCountByState(ctx, state)
			require.NoError(t, err)
			assert.EqualValues(t, 0, count)
		}

		var records []*timelock.Record
		for i := 0; i < 3; i++ {
			record := newLockedRecord("vault", fmt.Sprintf("depositor-%d", i))
			require.NoError(t, s.Save(ctx, record))
			records = append(records, record)
		}

		withdrawnAt := time.Unix(1_700_000_100, 0)
		records[0].WithdrawnAt = &withdrawnAt
		require.NoError(t, s.MarkWithdrawn(ctx, records[0]))

		count, err := s.GetCountByState(ctx, timelock.StateLocked)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = s.GetCountByState(ctx, timelock.StateWithdrawn)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func newLockedRecord(vault, depositor string) *timelock.Record {
	return &timelock.Record{
		LockId: uuid.New().String(),

		Depositor: depositor,
		Vault:     vault,
		Mint:      "mint",

		Amount:   10_000_000,
		UnlockAt: 1_700_000_005,

		State: timelock.StateLocked,

		LockedAt: time.Unix(1_700_000_000, 0),
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *timelock.Record) {
	assert.Equal(t, obj1.LockId, obj2.LockId)

	assert.Equal(t, obj1.Depositor, obj2.Depositor)
	assert.Equal(t, obj1.Vault, obj2.Vault)
	assert.Equal(t, obj1.Mint, obj2.Mint)

	assert.Equal(t, obj1.Amount, obj2.Amount)
	assert.Equal(t, obj1.UnlockAt, obj2.UnlockAt)

	assert.Equal(t, obj1.State, obj2.State)

	assert.Equal(t, obj1.LockedAt.Unix(), obj2.LockedAt.Unix())
	if obj1.WithdrawnAt == nil {
		assert.Nil(t, obj2.WithdrawnAt)
	} else {
		require.NotNil(t, obj2.WithdrawnAt)
		assert.Equal(t, obj1.WithdrawnAt.Unix(), obj2.WithdrawnAt.Unix())
	}
}
