package memory

import (
	"context"
	"sync"

	"github.com/code-payments/code-timelock/pkg/code/data/token"
)

type allowanceKey struct {
	owner   string
	spender string
}

type store struct {
	mu         sync.Mutex
	balances   map[string]uint64
	allowances map[allowanceKey]uint64
}

// New returns a new in memory token.Store
func New() token.Store {
	return &store{
		balances:   make(map[string]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

// Mint implements token.Store.Mint
func (s *store) Mint(_ context.Context, account string, quarks uint64) error {
	if err := token.ValidateAccounts(account); err != nil {
		return err
	}
	if err := token.ValidateAmount(quarks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balances[account] > token.MaxAmount-quarks {
		return token.ErrBalanceOverflow
	}
	s.balances[account] += quarks
	return nil
}

// Approve implements token.Store.Approve
func (s *store) Approve(_ context.Context, owner, spender string, quarks uint64) error {
	if err := token.ValidateAccounts(owner, spender); err != nil {
		return err
	}
	if quarks > token.MaxAllowance {
		return token.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.allowances[allowanceKey{owner, spender}] = quarks
	return nil
}

// Allowance implements token.Store.Allowance
func (s *store) Allowance(_ context.Context, owner, spender string) (uint64, error) {
	if err := token.ValidateAccounts(owner, spender); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allowances[allowanceKey{owner, spender}], nil
}

// BalanceOf implements token.Store.BalanceOf
func (s *store) BalanceOf(_ context.Context, account string) (uint64, error) {
	if err := token.ValidateAccounts(account); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balances[account], nil
}

// Transfer implements token.Store.Transfer
func (s *store) Transfer(_ context.Context, from, to string, quarks uint64) error {
	if err := token.ValidateAccounts(from, to); err != nil {
		return err
	}
	if err := token.ValidateAmount(quarks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.move(from, to, quarks)
}

// TransferFrom implements token.Store.TransferFrom
func (s *store) TransferFrom(_ context.Context, spender, from, to string, quarks uint64) error {
	if err := token.ValidateAccounts(spender, from, to); err != nil {
		return err
	}
	if err := token.ValidateAmount(quarks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := allowanceKey{from, spender}
	allowance := s.allowances[key]
	if allowance < quarks {
		return token.ErrInsufficientAllowance
	}

	if err := s.move(from, to, quarks); err != nil {
		return err
	}

	if allowance != token.MaxAllowance {
		s.allowances[key] = allowance - quarks
	}
	return nil
}

// move must be called with s.mu held. Nothing is mutated on error.
func (s *store) move(from, to string, quarks uint64) error {
	if s.balances[from] < quarks {
		return token.ErrInsufficientBalance
	}

	if from != to && s.balances[to] > token.MaxAmount-quarks {
		return token.ErrBalanceOverflow
	}

	s.balances[from] -= quarks
	s.balances[to] += quarks
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances = make(map[string]uint64)
	s.allowances = make(map[allowanceKey]uint64)
}
