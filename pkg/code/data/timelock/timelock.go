package timelock

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrTimelockNotFound   = errors.New("no records could be found")
	ErrInvalidTimelock    = errors.New("invalid timelock")
	ErrStaleTimelockState = errors.New("timelock state is stale")
	ErrActiveLockExists   = errors.New("depositor already has an active lock")
)

type State uint8

const (
	StateUnknown State = iota
	StateLocked
	StateWithdrawn
)

// Record is a single deposit into a vault. A depositor has at most one record
// in StateLocked per vault. Withdrawn records are kept as history.
type Record struct {
	Id uint64

	LockId string

	Depositor string
	Vault     string
	Mint      string

	Amount uint64

	// Unix seconds at or after which the lock can be withdrawn
	UnlockAt uint64

	State State

	LockedAt    time.Time
	WithdrawnAt *time.Time

	LastUpdatedAt time.Time
}

// IsWithdrawable reports whether the lock's gate has opened at unix time now
func (r *Record) IsWithdrawable(now uint64) bool {
	return r.State == StateLocked && now >= r.UnlockAt
}

func (r *Record) Clone() *Record {
	var withdrawnAt *time.Time
	if r.WithdrawnAt != nil {
		value := *r.WithdrawnAt
		withdrawnAt = &value
	}

	return &Record{
		Id: r.Id,

		LockId: r.LockId,

		Depositor: r.Depositor,
		Vault:     r.Vault,
		Mint:      r.Mint,

		Amount:   r.Amount,
		UnlockAt: r.UnlockAt,

		State: r.State,

		LockedAt:    r.LockedAt,
		WithdrawnAt: withdrawnAt,

		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	var withdrawnAt *time.Time
	if r.WithdrawnAt != nil {
		value := *r.WithdrawnAt
		withdrawnAt = &value
	}

	dst.Id = r.Id

	dst.LockId = r.LockId

	dst.Depositor = r.Depositor
	dst.Vault = r.Vault
	dst.Mint = r.Mint

	dst.Amount = r.Amount
	dst.UnlockAt = r.UnlockAt

	dst.State = r.State

	dst.LockedAt = r.LockedAt
	dst.WithdrawnAt = withdrawnAt

	dst.LastUpdatedAt = r.LastUpdatedAt
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.New("record is nil")
	}

	if _, err := uuid.Parse(r.LockId); err != nil {
		return errors.Wrap(ErrInvalidTimelock, "lock id must be a uuid")
	}

	if len(r.Depositor) == 0 {
		return errors.Wrap(ErrInvalidTimelock, "depositor is required")
	}

	if len(r.Vault) == 0 {
		return errors.Wrap(ErrInvalidTimelock, "vault is required")
	}

	if len(r.Mint) == 0 {
		return errors.Wrap(ErrInvalidTimelock, "mint is required")
	}

	if r.Amount == 0 {
		return errors.Wrap(ErrInvalidTimelock, "amount must be positive")
	}

	if r.LockedAt.IsZero() {
		return errors.Wrap(ErrInvalidTimelock, "locked timestamp is required")
	}

	switch r.State {
	case StateLocked:
		if r.WithdrawnAt != nil {
			return errors.Wrap(ErrInvalidTimelock, "locked record cannot have a withdrawn timestamp")
		}
	case StateWithdrawn:
		if r.WithdrawnAt == nil {
			return errors.Wrap(ErrInvalidTimelock, "withdrawn timestamp is required")
		}
	default:
		return errors.Wrap(ErrInvalidTimelock, "invalid state")
	}

	return nil
}

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateWithdrawn:
		return "withdrawn"
	default:
		return "unknown"
	}
}
