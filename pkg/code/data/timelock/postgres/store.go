package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed timelock.Store
func New(db *sql.DB) timelock.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements timelock.Store.Save
func (s *store) Save(ctx context.Context, record *timelock.Record) error {
	if record.State != timelock.StateLocked {
		return timelock.ErrInvalidTimelock
	}

	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbSave(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// MarkWithdrawn implements timelock.Store.MarkWithdrawn
func (s *store) MarkWithdrawn(ctx context.Context, record *timelock.Record) error {
	if record.WithdrawnAt == nil {
		return timelock.ErrInvalidTimelock
	}

	model := &model{
		Id:          sql.NullInt64{Int64: int64(record.Id), Valid: true},
		WithdrawnAt: sql.NullTime{Time: record.WithdrawnAt.UTC(), Valid: true},
	}

	if err := model.dbMarkWithdrawn(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetActiveByDepositor implements timelock.Store.GetActiveByDepositor
func (s *store) GetActiveByDepositor(ctx context.Context, vault, depositor string) (*timelock.Record, error) {
	model, err := dbGetActiveByDepositor(ctx, s.db, vault, depositor)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByState implements timelock.Store.GetAllByState
func (s *store) GetAllByState(ctx context.Context, state timelock.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*timelock.Record, error) {
	models, err := dbGetAllByState(ctx, s.db, state, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*timelock.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// GetCountByState implements timelock.Store.GetCountByState
func (s *store) GetCountByState(ctx context.Context, state timelock.State) (uint64, error) {
	return dbGetCountByState(ctx, s.db, state)
}
