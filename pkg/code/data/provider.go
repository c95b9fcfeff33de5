package data

import (
	"database/sql"
)

const (
	maxTimelockPageSize = 1024
)

type Provider interface {
	DatabaseData
}

type provider struct {
	*DatabaseProvider
}

// NewDataProviderFromDB returns a postgres backed provider over an existing
// connection pool (eg. one authenticated with AWS IAM), whose token ledger is
// scoped to mint
func NewDataProviderFromDB(db *sql.DB, mint string) Provider {
	return &provider{
		DatabaseProvider: NewDatabaseProvider(db, mint).(*DatabaseProvider),
	}
}

// NewTestDataProvider returns a provider backed entirely by in memory stores
func NewTestDataProvider() Provider {
	return &provider{
		DatabaseProvider: NewTestDatabaseProvider().(*DatabaseProvider),
	}
}
