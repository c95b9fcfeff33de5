package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-timelock/pkg/code/data/token"
)

type store struct {
	db   *sqlx.DB
	mint string
}

// New returns a new postgres-backed token.Store for the provided mint
func New(db *sql.DB, mint string) token.Store {
	return &store{
		db:   sqlx.NewDb(db, "pgx"),
		mint: mint,
	}
}

// Mint implements token.Store.Mint
func (s *store) Mint(ctx context.Context, account string, quarks uint64) error {
	if err := token.ValidateAccounts(account); err != nil {
		return err
	}
	if err := token.ValidateAmount(quarks); err != nil {
		return err
	}

	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return dbCredit(ctx, tx, s.mint, account, quarks)
	})
}

// Approve implements token.Store.Approve
func (s *store) Approve(ctx context.Context, owner, spender string, quarks uint64) error {
	if err := token.ValidateAccounts(owner, spender); err != nil {
		return err
	}
	if quarks > token.MaxAllowance {
		return token.ErrInvalidAmount
	}

	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return dbSetAllowance(ctx, tx, s.mint, owner, spender, quarks)
	})
}

// Allowance implements token.Store.Allowance
func (s *store) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	if err := token.ValidateAccounts(owner, spender); err != nil {
		return 0, err
	}

	var res uint64
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		res, err = dbGetAllowance(ctx, tx, s.mint, owner, spender, false)
		return err
	})
	return res, err
}

// BalanceOf implements token.Store.BalanceOf
func (s *store) BalanceOf(ctx context.Context, account string) (uint64, error) {
	if err := token.ValidateAccounts(account); err != nil {
		return 0, err
	}

	var res uint64
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		res, err = dbGetBalance(ctx, tx, s.mint, account)
		return err
	})
	return res, err
}

// Transfer implements token.Store.Transfer
func (s *store) Transfer(ctx context.Context, from, to string, quarks uint64) error {
	if err := token.ValidateAccounts(from, to); err != nil {
		return err
	}
	if err := token.ValidateAmount(quarks); err != nil {
		return err
	}

	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return dbMove(ctx, tx, s.mint, from, to, quarks)
	})
}

// TransferFrom implements token.Store.TransferFrom
func (s *store) TransferFrom(ctx context.Context, spender, from, to string, quarks uint64) error {
	if err := token.ValidateAccounts(spender, from, to); err != nil {
		return err
	}
	if err := token.ValidateAmount(quarks); err != nil {
		return err
	}

	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		allowance, err := dbGetAllowance(ctx, tx, s.mint, from, spender, true)
		if err != nil {
			return err
		}
		if allowance < quarks {
			return token.ErrInsufficientAllowance
		}

		if err := dbMove(ctx, tx, s.mint, from, to, quarks); err != nil {
			return err
		}

		if allowance == token.MaxAllowance {
			return nil
		}
		return dbSetAllowance(ctx, tx, s.mint, from, spender, allowance-quarks)
	})
}
