package data

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "github.com/code-payments/code-timelock/pkg/database/postgres"
	"github.com/code-payments/code-timelock/pkg/database/query"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
)

func TestMemoryExecuteInTx_Serializes(t *testing.T) {
	ctx := context.Background()
	p := NewTestDataProvider()

	require.NoError(t, p.MintTokens(ctx, "owner", 100))

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- p.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
			close(entered)
			<-release

			// Calls inside the tx don't block on the tx lock
			balance, err := p.GetTokenBalance(ctx, "owner")
			if err != nil {
				return err
			}
			return p.TransferTokens(ctx, "owner", "other", balance)
		})
	}()
	<-entered

	var wg sync.WaitGroup
	var observed uint64
	wg.Add(1)
	go func() {
		defer wg.Done()
		observed, _ = p.GetTokenBalance(ctx, "owner")
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-txDone)
	wg.Wait()

	// The concurrent read could only observe the state after the tx
	assert.EqualValues(t, 0, observed)

	balance, err := p.GetTokenBalance(ctx, "other")
	require.NoError(t, err)
	assert.EqualValues(t, 100, balance)
}

func TestMemoryExecuteInTx_Nested(t *testing.T) {
	ctx := context.Background()
	p := NewTestDataProvider()

	err := p.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
		return p.ExecuteInTx(ctx, sql.LevelDefault, func(ctx context.Context) error {
			return nil
		})
	})
	assert.Equal(t, pg.ErrAlreadyInTx, err)
}

func TestGetAllTimelocksByState_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	p := NewTestDataProvider()

	_, err := p.GetAllTimelocksByState(ctx, timelock.StateLocked, query.EmptyCursor, 0, query.Ascending)
	assert.Equal(t, timelock.ErrTimelockNotFound, err)

	count, err := p.GetTimelockCountByState(ctx, timelock.StateLocked)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
