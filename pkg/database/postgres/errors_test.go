package pg

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTranslation(t *testing.T) {
	errOut := errors.New("out")
	errOther := errors.New("other")

	assert.Equal(t, errOut, CheckNoRows(sql.ErrNoRows, errOut))
	assert.Equal(t, errOut, CheckNoRows(errors.Wrap(sql.ErrNoRows, "wrapped"), errOut))
	assert.Equal(t, errOther, CheckNoRows(errOther, errOut))
	assert.NoError(t, CheckNoRows(nil, errOut))

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.True(t, IsUniqueViolation(unique))
	assert.Equal(t, errOut, CheckUniqueViolation(unique, errOut))
	assert.Equal(t, errOther, CheckUniqueViolation(errOther, errOut))

	check := &pgconn.PgError{Code: pgerrcode.CheckViolation}
	assert.Equal(t, errOut, CheckViolation(check, errOut))
	assert.Equal(t, unique, CheckViolation(unique, errOut))
	assert.NoError(t, CheckViolation(nil, errOut))
}

func TestExecuteRetryable(t *testing.T) {
	var calls int
	err := ExecuteRetryable(func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = ExecuteRetryable(func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	})
	assert.True(t, IsSerializationFailure(err))
	assert.Equal(t, maxSerializationRetries, calls)

	calls = 0
	errPermanent := errors.New("permanent")
	err = ExecuteRetryable(func() error {
		calls++
		return errPermanent
	})
	assert.Equal(t, errPermanent, err)
	assert.Equal(t, 1, calls)
}
