package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-timelock/pkg/clock"
	code_data "github.com/code-payments/code-timelock/pkg/code/data"
	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
	pg "github.com/code-payments/code-timelock/pkg/database/postgres"
	"github.com/code-payments/code-timelock/pkg/lock"
	"github.com/code-payments/code-timelock/pkg/metrics"
)

// DepositorState is the derived lifecycle state of a single depositor
type DepositorState uint8

const (
	Unlocked DepositorState = iota
	Locked
	Withdrawable
)

// LockState is a read-only view of a depositor's current lock
type LockState struct {
	Depositor string
	LockId    string
	Amount    uint64
	UnlockAt  uint64
	State     DepositorState
}

// Vault custodies tokens on behalf of depositors and releases them once each
// depositor's unlock time has passed.
//
// Every state transition holds the depositor's lock and runs in a single data
// provider transaction, with all preconditions checked before any mutation.
// Transactions run at serializable isolation, and are retried when aborted by
// a serialization failure.
type Vault struct {
	log   *logrus.Entry
	conf  *conf
	data  code_data.Provider
	clock clock.Clock
	locks lock.Manager
}

func New(log *logrus.Entry, data code_data.Provider, clk clock.Clock, locks lock.Manager, configProvider ConfigProvider) *Vault {
	if log == nil {
		log = logrus.StandardLogger().WithField("type", "vault")
	}

	return &Vault{
		log:   log,
		conf:  configProvider(),
		data:  data,
		clock: clk,
		locks: locks,
	}
}

// Address is the vault's own account on the token ledger
func (v *Vault) Address(ctx context.Context) string {
	return v.conf.address.Get(ctx)
}

// Mint is the token the vault custodies
func (v *Vault) Mint(ctx context.Context) string {
	return v.conf.mint.Get(ctx)
}

// Lock pulls amount tokens from the depositor into the vault, which must have
// been approved as a spender beforehand. The tokens can be withdrawn once
// delaySeconds have elapsed. A delay of zero is immediately withdrawable.
func (v *Vault) Lock(ctx context.Context, depositor string, amount, delaySeconds uint64) (*timelock.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Lock")
	defer tracer.End()

	log := v.log.WithFields(logrus.Fields{
		"method":        "Lock",
		"depositor":     depositor,
		"amount":        amount,
		"delay_seconds": delaySeconds,
	})

	vaultAddress := v.conf.address.Get(ctx)

	var record *timelock.Record
	err := v.validateLock(ctx, vaultAddress, depositor, amount, delaySeconds)
	if err == nil {
		err = v.withDepositorLock(ctx, depositor, func(ctx context.Context) error {
			return pg.ExecuteRetryable(func() error {
				return v.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
					var err error
					record, err = v.lockInTx(ctx, vaultAddress, depositor, amount, delaySeconds)
					return err
				})
			})
		})
	}
	if err != nil {
		tracer.OnError(err)
		if IsRejection(err) {
			log.WithError(err).Info("lock rejected")
			recordLockRejectedEvent(ctx, "lock", depositor, err)
		} else {
			log.WithError(err).Warn("failure locking tokens")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"lock_id":   record.LockId,
		"unlock_at": record.UnlockAt,
	}).Info("tokens locked")
	recordTokensLockedEvent(ctx, record)

	return record, nil
}

func (v *Vault) validateLock(ctx context.Context, vaultAddress, depositor string, amount, delaySeconds uint64) error {
	if len(depositor) == 0 || depositor == vaultAddress {
		return ErrInvalidDepositor
	}

	if amount == 0 || amount > token.MaxAmount {
		return ErrInvalidAmount
	}

	maxDelaySeconds := uint64(v.conf.maxLockDuration.Get(ctx) / time.Second)
	if delaySeconds > maxDelaySeconds {
		return ErrDelayTooLong
	}

	return nil
}

func (v *Vault) lockInTx(ctx context.Context, vaultAddress, depositor string, amount, delaySeconds uint64) (*timelock.Record, error) {
	_, err := v.data.GetActiveTimelockByDepositor(ctx, vaultAddress, depositor)
	if err == nil {
		return nil, ErrDuplicateLock
	} else if err != timelock.ErrTimelockNotFound {
		return nil, errors.Wrap(err, "error getting active lock")
	}

	allowance, err := v.data.GetTokenAllowance(ctx, depositor, vaultAddress)
	if err != nil {
		return nil, errors.Wrap(translateStoreError(err), "error getting allowance")
	}
	if allowance < amount {
		return nil, ErrInsufficientAllowance
	}

	balance, err := v.data.GetTokenBalance(ctx, depositor)
	if err != nil {
		return nil, errors.Wrap(translateStoreError(err), "error getting depositor balance")
	}
	if balance < amount {
		return nil, ErrInsufficientBalance
	}

	now := v.clock.Now()
	record := &timelock.Record{
		LockId: uuid.New().String(),

		Depositor: depositor,
		Vault:     vaultAddress,
		Mint:      v.conf.mint.Get(ctx),

		Amount:   amount,
		UnlockAt: toUnixSeconds(now) + delaySeconds,

		State: timelock.StateLocked,

		LockedAt: now,
	}

	// Nothing below can be undone by the in memory provider
	if err := record.Validate(); err != nil {
		return nil, err
	}

	err = v.data.TransferTokensFrom(ctx, vaultAddress, depositor, vaultAddress, amount)
	if err != nil {
		return nil, translateStoreError(err)
	}

	err = v.data.SaveTimelock(ctx, record)
	if err != nil {
		return nil, translateStoreError(err)
	}

	return record, nil
}

// Withdraw returns the depositor's full locked amount once its unlock time has
// been reached. The lock is retained as history in the withdrawn state.
func (v *Vault) Withdraw(ctx context.Context, depositor string) (*timelock.Record, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Withdraw")
	defer tracer.End()

	log := v.log.WithFields(logrus.Fields{
		"method":    "Withdraw",
		"depositor": depositor,
	})

	vaultAddress := v.conf.address.Get(ctx)

	var record *timelock.Record
	var err error
	if len(depositor) == 0 || depositor == vaultAddress {
		err = ErrInvalidDepositor
	} else {
		err = v.withDepositorLock(ctx, depositor, func(ctx context.Context) error {
			return pg.ExecuteRetryable(func() error {
				return v.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
					var err error
					record, err = v.withdrawInTx(ctx, vaultAddress, depositor)
					return err
				})
			})
		})
	}
	if err != nil {
		tracer.OnError(err)
		if IsRejection(err) {
			log.WithError(err).Info("withdraw rejected")
			recordLockRejectedEvent(ctx, "withdraw", depositor, err)
		} else {
			log.WithError(err).Warn("failure withdrawing tokens")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"lock_id": record.LockId,
		"amount":  record.Amount,
	}).Info("tokens withdrawn")
	recordTokensWithdrawnEvent(ctx, record)

	return record, nil
}

func (v *Vault) withdrawInTx(ctx context.Context, vaultAddress, depositor string) (*timelock.Record, error) {
	record, err := v.data.GetActiveTimelockByDepositor(ctx, vaultAddress, depositor)
	if err == timelock.ErrTimelockNotFound {
		return nil, ErrNoActiveLock
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting active lock")
	}

	now := v.clock.Now()
	if !record.IsWithdrawable(toUnixSeconds(now)) {
		return nil, ErrTimeNotElapsed
	}

	custodied, err := v.data.GetTokenBalance(ctx, vaultAddress)
	if err != nil {
		return nil, errors.Wrap(err, "error getting vault balance")
	}
	if custodied < record.Amount {
		return nil, errors.Errorf("vault custodies %d quarks, but lock %s requires %d", custodied, record.LockId, record.Amount)
	}

	err = v.data.TransferTokens(ctx, vaultAddress, depositor, record.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "error returning locked tokens")
	}

	record.WithdrawnAt = &now
	err = v.data.MarkTimelockWithdrawn(ctx, record)
	if err != nil {
		return nil, translateStoreError(err)
	}

	return record, nil
}

// GetLock returns the depositor's current lock. Depositors without an active
// lock are Unlocked with a zero amount.
func (v *Vault) GetLock(ctx context.Context, depositor string) (*LockState, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetLock")
	defer tracer.End()

	res := &LockState{
		Depositor: depositor,
		State:     Unlocked,
	}

	record, err := v.data.GetActiveTimelockByDepositor(ctx, v.conf.address.Get(ctx), depositor)
	if err == timelock.ErrTimelockNotFound {
		return res, nil
	} else if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	res.LockId = record.LockId
	res.Amount = record.Amount
	res.UnlockAt = record.UnlockAt
	res.State = Locked
	if record.IsWithdrawable(toUnixSeconds(v.clock.Now())) {
		res.State = Withdrawable
	}
	return res, nil
}

// CustodiedBalance is the total number of quarks held by the vault
func (v *Vault) CustodiedBalance(ctx context.Context) (uint64, error) {
	return v.data.GetTokenBalance(ctx, v.conf.address.Get(ctx))
}

func (v *Vault) withDepositorLock(ctx context.Context, depositor string, fn func(ctx context.Context) error) error {
	lockName := depositorLockName(v.conf.address.Get(ctx), depositor)
	return lock.WithLock(ctx, v.locks, lockName, v.conf.lockTimeout.Get(ctx), fn)
}

func depositorLockName(vaultAddress, depositor string) string {
	return fmt.Sprintf("/timelock/%s/depositor/%s", vaultAddress, depositor)
}

func toUnixSeconds(t time.Time) uint64 {
	if t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}

func (s DepositorState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	case Withdrawable:
		return "withdrawable"
	default:
		return "unknown"
	}
}
