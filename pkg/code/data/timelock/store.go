package timelock

import (
	"context"

	"github.com/code-payments/code-timelock/pkg/database/query"
)

type Store interface {
	// Save creates a new lock record. ErrActiveLockExists is returned if the
	// depositor already has a record in StateLocked for the same vault.
	Save(ctx context.Context, record *Record) error

	// MarkWithdrawn transitions a StateLocked record to StateWithdrawn.
	// ErrTimelockNotFound is returned when the record doesn't exist, and
	// ErrStaleTimelockState when it's no longer locked.
	MarkWithdrawn(ctx context.Context, record *Record) error

	// GetActiveByDepositor gets the depositor's StateLocked record for a vault
	GetActiveByDepositor(ctx context.Context, vault, depositor string) (*Record, error)

	// GetAllByState gets all lock records in the provided state
	GetAllByState(ctx context.Context, state State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetCountByState gets the count of records in the provided state
	GetCountByState(ctx context.Context, state State) (uint64, error)
}
