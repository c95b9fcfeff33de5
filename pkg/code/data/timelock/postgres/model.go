package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	pgutil "github.com/code-payments/code-timelock/pkg/database/postgres"
	q "github.com/code-payments/code-timelock/pkg/database/query"
)

const (
	tableName = "codewallet__core_timelock"

	// Schema creates the table backing the store. The partial unique index
	// enforces a single active lock per depositor and vault.
	Schema = `
		CREATE TABLE IF NOT EXISTS ` + tableName + `(
			id SERIAL NOT NULL PRIMARY KEY,

			lock_id UUID NOT NULL,

			depositor TEXT NOT NULL,
			vault TEXT NOT NULL,
			mint TEXT NOT NULL,

			amount BIGINT NOT NULL CHECK (amount > 0),
			unlock_at BIGINT NOT NULL CHECK (unlock_at >= 0),

			state INTEGER NOT NULL,

			locked_at TIMESTAMP WITH TIME ZONE NOT NULL,
			withdrawn_at TIMESTAMP WITH TIME ZONE,

			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT codewallet__core_timelock__uniq__lock_id UNIQUE (lock_id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS codewallet__core_timelock__uniq__active_lock
			ON ` + tableName + ` (vault, depositor)
			WHERE state = 1;
	`

	allColumns = `id, lock_id, depositor, vault, mint, amount, unlock_at, state, locked_at, withdrawn_at, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	LockId string `db:"lock_id"`

	Depositor string `db:"depositor"`
	Vault     string `db:"vault"`
	Mint      string `db:"mint"`

	Amount   int64 `db:"amount"`
	UnlockAt int64 `db:"unlock_at"`

	State uint `db:"state"`

	LockedAt    time.Time    `db:"locked_at"`
	WithdrawnAt sql.NullTime `db:"withdrawn_at"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *timelock.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	var withdrawnAt sql.NullTime
	if obj.WithdrawnAt != nil {
		withdrawnAt.Valid = true
		withdrawnAt.Time = obj.WithdrawnAt.UTC()
	}

	return &model{
		Id: sql.NullInt64{Int64: int64(obj.Id), Valid: obj.Id > 0},

		LockId: obj.LockId,

		Depositor: obj.Depositor,
		Vault:     obj.Vault,
		Mint:      obj.Mint,

		Amount:   int64(obj.Amount),
		UnlockAt: int64(obj.UnlockAt),

		State: uint(obj.State),

		LockedAt:    obj.LockedAt.UTC(),
		WithdrawnAt: withdrawnAt,

		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *timelock.Record {
	var withdrawnAt *time.Time
	if obj.WithdrawnAt.Valid {
		value := obj.WithdrawnAt.Time
		withdrawnAt = &value
	}

	return &timelock.Record{
		Id: uint64(obj.Id.Int64),

		LockId: obj.LockId,

		Depositor: obj.Depositor,
		Vault:     obj.Vault,
		Mint:      obj.Mint,

		Amount:   uint64(obj.Amount),
		UnlockAt: uint64(obj.UnlockAt),

		State: timelock.State(obj.State),

		LockedAt:    obj.LockedAt,
		WithdrawnAt: withdrawnAt,

		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(lock_id, depositor, vault, mint, amount, unlock_at, state, locked_at, withdrawn_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)

			RETURNING
				` + allColumns

		m.LastUpdatedAt = time.Now()

		err := tx.QueryRowxContext(
			ctx,
			query,

			m.LockId,

			m.Depositor,
			m.Vault,
			m.Mint,

			m.Amount,
			m.UnlockAt,

			m.State,

			m.LockedAt,
			m.WithdrawnAt,

			m.LastUpdatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, timelock.ErrActiveLockExists)
	})
}

func (m *model) dbMarkWithdrawn(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET state = $2, withdrawn_at = $3, last_updated_at = $4
			WHERE id = $1 AND state = $5

			RETURNING
				` + allColumns

		m.LastUpdatedAt = time.Now()

		err := tx.QueryRowxContext(
			ctx,
			query,

			m.Id,
			uint(timelock.StateWithdrawn),
			m.WithdrawnAt,
			m.LastUpdatedAt.UTC(),
			uint(timelock.StateLocked),
		).StructScan(m)
		if !pgutil.IsNoRows(err) {
			return err
		}

		var exists bool
		err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM `+tableName+` WHERE id = $1)`, m.Id)
		if err != nil {
			return err
		}
		if !exists {
			return timelock.ErrTimelockNotFound
		}
		return timelock.ErrStaleTimelockState
	})
}

func dbGetActiveByDepositor(ctx context.Context, db *sqlx.DB, vault, depositor string) (*model, error) {
	res := &model{}

	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `SELECT
			` + allColumns + `
			FROM ` + tableName + `
			WHERE vault = $1 AND depositor = $2 AND state = $3
			LIMIT 1`

		return tx.GetContext(ctx, res, query, vault, depositor, uint(timelock.StateLocked))
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, timelock.ErrTimelockNotFound)
	}
	return res, nil
}

func dbGetAllByState(ctx context.Context, db *sqlx.DB, state timelock.State, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT
		` + allColumns + `
		FROM ` + tableName + `
		WHERE (state = $1)
	`

	opts := []interface{}{uint(state)}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, timelock.ErrTimelockNotFound)
	}

	if len(res) == 0 {
		return nil, timelock.ErrTimelockNotFound
	}
	return res, nil
}

func dbGetCountByState(ctx context.Context, db *sqlx.DB, state timelock.State) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + ` WHERE state = $1`
	err := db.GetContext(ctx, &res, query, uint(state))
	if err != nil {
		return 0, err
	}

	return res, nil
}
