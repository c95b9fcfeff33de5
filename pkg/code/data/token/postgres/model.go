package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/code-timelock/pkg/code/data/token"
	pgutil "github.com/code-payments/code-timelock/pkg/database/postgres"
)

const (
	balanceTableName   = "codewallet__core_tokenbalance"
	allowanceTableName = "codewallet__core_tokenallowance"

	// Schema creates the tables backing the store
	Schema = `
		CREATE TABLE IF NOT EXISTS ` + balanceTableName + `(
			id SERIAL NOT NULL PRIMARY KEY,

			mint TEXT NOT NULL,
			account TEXT NOT NULL,
			quarks BIGINT NOT NULL CHECK (quarks >= 0),

			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT codewallet__core_tokenbalance__uniq__mint__and__account UNIQUE (mint, account)
		);

		CREATE TABLE IF NOT EXISTS ` + allowanceTableName + `(
			id SERIAL NOT NULL PRIMARY KEY,

			mint TEXT NOT NULL,
			owner TEXT NOT NULL,
			spender TEXT NOT NULL,
			quarks BIGINT NOT NULL CHECK (quarks >= 0),

			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT codewallet__core_tokenallowance__uniq__mint__and__owner__and__spender UNIQUE (mint, owner, spender)
		);
	`
)

func dbGetBalance(ctx context.Context, tx *sqlx.Tx, mint, account string) (uint64, error) {
	var res int64

	query := `SELECT quarks FROM ` + balanceTableName + `
		WHERE mint = $1 AND account = $2
		LIMIT 1`

	err := tx.GetContext(ctx, &res, query, mint, account)
	if pgutil.IsNoRows(err) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return uint64(res), nil
}

func dbCredit(ctx context.Context, tx *sqlx.Tx, mint, account string, quarks uint64) error {
	query := `INSERT INTO ` + balanceTableName + `
		(mint, account, quarks, last_updated_at)
		VALUES ($1, $2, $3, $4)

		ON CONFLICT (mint, account)
		DO UPDATE
			SET quarks = ` + balanceTableName + `.quarks + $3, last_updated_at = $4`

	_, err := tx.ExecContext(ctx, query, mint, account, int64(quarks), time.Now().UTC())
	return checkOverflow(err)
}

func dbDebit(ctx context.Context, tx *sqlx.Tx, mint, account string, quarks uint64) error {
	query := `UPDATE ` + balanceTableName + `
		SET quarks = quarks - $3, last_updated_at = $4
		WHERE mint = $1 AND account = $2 AND quarks >= $3`

	res, err := tx.ExecContext(ctx, query, mint, account, int64(quarks), time.Now().UTC())
	if err != nil {
		return pgutil.CheckViolation(err, token.ErrInsufficientBalance)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return token.ErrInsufficientBalance
	}
	return nil
}

func dbMove(ctx context.Context, tx *sqlx.Tx, mint, from, to string, quarks uint64) error {
	if err := dbDebit(ctx, tx, mint, from, quarks); err != nil {
		return err
	}
	return dbCredit(ctx, tx, mint, to, quarks)
}

func dbGetAllowance(ctx context.Context, tx *sqlx.Tx, mint, owner, spender string, forUpdate bool) (uint64, error) {
	var res int64

	query := `SELECT quarks FROM ` + allowanceTableName + `
		WHERE mint = $1 AND owner = $2 AND spender = $3
		LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	err := tx.GetContext(ctx, &res, query, mint, owner, spender)
	if pgutil.IsNoRows(err) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return uint64(res), nil
}

func dbSetAllowance(ctx context.Context, tx *sqlx.Tx, mint, owner, spender string, quarks uint64) error {
	query := `INSERT INTO ` + allowanceTableName + `
		(mint, owner, spender, quarks, last_updated_at)
		VALUES ($1, $2, $3, $4, $5)

		ON CONFLICT (mint, owner, spender)
		DO UPDATE
			SET quarks = $4, last_updated_at = $5`

	_, err := tx.ExecContext(ctx, query, mint, owner, spender, int64(quarks), time.Now().UTC())
	return err
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, fn)
}

func checkOverflow(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange {
		return token.ErrBalanceOverflow
	}
	return err
}
