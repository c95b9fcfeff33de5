package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows translates sql.ErrNoRows into outErr
func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

func IsNoRows(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}

// CheckUniqueViolation translates a unique constraint violation into outErr
func CheckUniqueViolation(inErr, outErr error) error {
	if IsUniqueViolation(inErr) {
		return outErr
	}
	return inErr
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// CheckViolation translates a check constraint violation into outErr. Stores use
// CHECK constraints to guard non-negative balances.
func CheckViolation(inErr, outErr error) error {
	if inErr == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(inErr, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return outErr
	}
	return inErr
}
