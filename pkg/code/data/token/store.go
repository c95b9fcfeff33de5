package token

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

const (
	// MaxAmount is the largest quark amount a balance or allowance can hold
	MaxAmount = math.MaxInt64

	// MaxAllowance is an approval that is never decremented by TransferFrom
	MaxAllowance = MaxAmount

	// QuarksPerToken is the number of quarks in a single whole token
	QuarksPerToken = 1_000_000
)

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrInvalidAmount         = errors.New("invalid token amount")
	ErrInvalidAccount        = errors.New("token account is required")
	ErrBalanceOverflow       = errors.New("token balance overflow")
)

// Store is a fungible token ledger for a single mint. Amounts are in quarks,
// the smallest indivisible unit of the token.
//
// Every method is atomic: it either fully applies or leaves the ledger
// unchanged.
type Store interface {
	// Mint credits newly issued quarks to account
	Mint(ctx context.Context, account string, quarks uint64) error

	// Approve sets the number of quarks spender may pull from owner via
	// TransferFrom. It replaces, rather than adds to, any existing allowance.
	Approve(ctx context.Context, owner, spender string, quarks uint64) error

	// Allowance gets the number of quarks spender may pull from owner
	Allowance(ctx context.Context, owner, spender string) (uint64, error)

	// BalanceOf gets the quark balance of account. Unknown accounts have a
	// zero balance.
	BalanceOf(ctx context.Context, account string) (uint64, error)

	// Transfer moves quarks from one account to another. ErrInsufficientBalance
	// is returned if from doesn't hold enough quarks.
	Transfer(ctx context.Context, from, to string, quarks uint64) error

	// TransferFrom moves quarks from one account to another on behalf of
	// spender, consuming spender's allowance. ErrInsufficientAllowance is
	// returned before ErrInsufficientBalance is considered.
	TransferFrom(ctx context.Context, spender, from, to string, quarks uint64) error
}

// ValidateAmount checks quarks is a positive amount a ledger can hold
func ValidateAmount(quarks uint64) error {
	if quarks == 0 || quarks > MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateAccounts checks all provided accounts are set
func ValidateAccounts(accounts ...string) error {
	for _, account := range accounts {
		if len(account) == 0 {
			return ErrInvalidAccount
		}
	}
	return nil
}
