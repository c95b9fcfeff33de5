package data

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"

	pg "github.com/code-payments/code-timelock/pkg/database/postgres"
	"github.com/code-payments/code-timelock/pkg/database/query"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"

	timelock_memory_client "github.com/code-payments/code-timelock/pkg/code/data/timelock/memory"
	token_memory_client "github.com/code-payments/code-timelock/pkg/code/data/token/memory"

	timelock_postgres_client "github.com/code-payments/code-timelock/pkg/code/data/timelock/postgres"
	token_postgres_client "github.com/code-payments/code-timelock/pkg/code/data/token/postgres"
)

type memoryTxContextKey struct{}

type DatabaseData interface {
	// Token Ledger
	// --------------------------------------------------------------------------------
	MintTokens(ctx context.Context, account string, quarks uint64) error
	ApproveTokens(ctx context.Context, owner, spender string, quarks uint64) error
	GetTokenAllowance(ctx context.Context, owner, spender string) (uint64, error)
	GetTokenBalance(ctx context.Context, account string) (uint64, error)
	TransferTokens(ctx context.Context, from, to string, quarks uint64) error
	TransferTokensFrom(ctx context.Context, spender, from, to string, quarks uint64) error

	// Timelocks
	// --------------------------------------------------------------------------------
	SaveTimelock(ctx context.Context, record *timelock.Record) error
	MarkTimelockWithdrawn(ctx context.Context, record *timelock.Record) error
	GetActiveTimelockByDepositor(ctx context.Context, vault, depositor string) (*timelock.Record, error)
	GetAllTimelocksByState(ctx context.Context, state timelock.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*timelock.Record, error)
	GetTimelockCountByState(ctx context.Context, state timelock.State) (uint64, error)

	// ExecuteInTx executes fn with a single DB transaction that is scoped to the call.
	// Every store call made with the context passed to fn joins that transaction, so
	// fn either fully applies or has no effect.
	//
	// The in memory provider has no rollback. Instead, it serializes fn against all
	// other provider calls, and callers are expected to validate preconditions before
	// mutating anything.
	ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error
}

type DatabaseProvider struct {
	tokens    token.Store
	timelocks timelock.Store

	db *sqlx.DB

	// Only used by the in memory provider
	memoryMu sync.Mutex
}

func NewDatabaseProvider(db *sql.DB, mint string) DatabaseData {
	return &DatabaseProvider{
		tokens:    token_postgres_client.New(db, mint),
		timelocks: timelock_postgres_client.New(db),

		db: sqlx.NewDb(db, "pgx"),
	}
}

func NewTestDatabaseProvider() DatabaseData {
	return &DatabaseProvider{
		tokens:    token_memory_client.New(),
		timelocks: timelock_memory_client.New(),
	}
}

func (dp *DatabaseProvider) ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error {
	if dp.db != nil {
		return pg.ExecuteTxWithinCtx(ctx, dp.db, isolation, fn)
	}

	if ctx.Value(memoryTxContextKey{}) != nil {
		return pg.ErrAlreadyInTx
	}

	dp.memoryMu.Lock()
	defer dp.memoryMu.Unlock()

	return fn(context.WithValue(ctx, memoryTxContextKey{}, struct{}{}))
}

// serialize runs fn under the in memory provider's tx lock, unless ctx already
// holds it
func (dp *DatabaseProvider) serialize(ctx context.Context, fn func() error) error {
	if dp.db != nil || ctx.Value(memoryTxContextKey{}) != nil {
		return fn()
	}

	dp.memoryMu.Lock()
	defer dp.memoryMu.Unlock()

	return fn()
}

// Token Ledger
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) MintTokens(ctx context.Context, account string, quarks uint64) error {
	return dp.serialize(ctx, func() error {
		return dp.tokens.Mint(ctx, account, quarks)
	})
}
func (dp *DatabaseProvider) ApproveTokens(ctx context.Context, owner, spender string, quarks uint64) error {
	return dp.serialize(ctx, func() error {
		return dp.tokens.Approve(ctx, owner, spender, quarks)
	})
}
func (dp *DatabaseProvider) GetTokenAllowance(ctx context.Context, owner, spender string) (uint64, error) {
	var res uint64
	err := dp.serialize(ctx, func() error {
		var err error
		res, err = dp.tokens.Allowance(ctx, owner, spender)
		return err
	})
	return res, err
}
func (dp *DatabaseProvider) GetTokenBalance(ctx context.Context, account string) (uint64, error) {
	var res uint64
	err := dp.serialize(ctx, func() error {
		var err error
		res, err = dp.tokens.BalanceOf(ctx, account)
		return err
	})
	return res, err
}
func (dp *DatabaseProvider) TransferTokens(ctx context.Context, from, to string, quarks uint64) error {
	return dp.serialize(ctx, func() error {
		return dp.tokens.Transfer(ctx, from, to, quarks)
	})
}
func (dp *DatabaseProvider) TransferTokensFrom(ctx context.Context, spender, from, to string, quarks uint64) error {
	return dp.serialize(ctx, func() error {
		return dp.tokens.TransferFrom(ctx, spender, from, to, quarks)
	})
}

// Timelocks
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) SaveTimelock(ctx context.Context, record *timelock.Record) error {
	return dp.serialize(ctx, func() error {
		return dp.timelocks.Save(ctx, record)
	})
}
func (dp *DatabaseProvider) MarkTimelockWithdrawn(ctx context.Context, record *timelock.Record) error {
	return dp.serialize(ctx, func() error {
		return dp.timelocks.MarkWithdrawn(ctx, record)
	})
}
func (dp *DatabaseProvider) GetActiveTimelockByDepositor(ctx context.Context, vault, depositor string) (*timelock.Record, error) {
	var res *timelock.Record
	err := dp.serialize(ctx, func() error {
		var err error
		res, err = dp.timelocks.GetActiveByDepositor(ctx, vault, depositor)
		return err
	})
	return res, err
}
func (dp *DatabaseProvider) GetAllTimelocksByState(ctx context.Context, state timelock.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*timelock.Record, error) {
	if limit == 0 || limit > maxTimelockPageSize {
		limit = maxTimelockPageSize
	}

	var res []*timelock.Record
	err := dp.serialize(ctx, func() error {
		var err error
		res, err = dp.timelocks.GetAllByState(ctx, state, cursor, limit, direction)
		return err
	})
	return res, err
}
func (dp *DatabaseProvider) GetTimelockCountByState(ctx context.Context, state timelock.State) (uint64, error) {
	var res uint64
	err := dp.serialize(ctx, func() error {
		var err error
		res, err = dp.timelocks.GetCountByState(ctx, state)
		return err
	})
	return res, err
}
