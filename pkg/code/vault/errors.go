package vault

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
)

var (
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrDuplicateLock         = errors.New("depositor already has an active lock")
	ErrNoActiveLock          = errors.New("depositor has no active lock")
	ErrTimeNotElapsed        = errors.New("unlock time has not elapsed")

	ErrInvalidAmount    = errors.New("lock amount must be positive")
	ErrInvalidDepositor = errors.New("invalid depositor")
	ErrDelayTooLong     = errors.New("lock delay exceeds the maximum lock duration")
)

// translateStoreError maps data layer errors onto the vault's error taxonomy
func translateStoreError(err error) error {
	switch err {
	case token.ErrInsufficientAllowance:
		return ErrInsufficientAllowance
	case token.ErrInsufficientBalance:
		return ErrInsufficientBalance
	case token.ErrInvalidAmount:
		return ErrInvalidAmount
	case token.ErrInvalidAccount:
		return ErrInvalidDepositor
	case timelock.ErrActiveLockExists:
		return ErrDuplicateLock
	case timelock.ErrTimelockNotFound, timelock.ErrStaleTimelockState:
		return ErrNoActiveLock
	}
	return err
}

// IsRejection returns whether err is an expected rejection of an operation,
// as opposed to an infrastructure failure
func IsRejection(err error) bool {
	switch errors.Cause(err) {
	case ErrInsufficientAllowance,
		ErrInsufficientBalance,
		ErrDuplicateLock,
		ErrNoActiveLock,
		ErrTimeNotElapsed,
		ErrInvalidAmount,
		ErrInvalidDepositor,
		ErrDelayTooLong:
		return true
	}
	return false
}
