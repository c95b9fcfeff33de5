package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-timelock/pkg/clock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
	"github.com/code-payments/code-timelock/pkg/code/vault"
)

type simulation struct {
	depositor    string
	amount       uint64
	lockOffset   int64
	delaySeconds uint64
	skipSeconds  int64
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var amount string
	sim := &simulation{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a lock and withdraw cycle in memory on a simulated clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			quarks, err := token.StrToQuarks(amount)
			if err != nil {
				return errors.Wrap(err, "invalid amount")
			}
			sim.amount = quarks

			start := time.Now().Truncate(time.Second)
			if opts.now > 0 {
				start = time.Unix(opts.now, 0)
			}

			clk := clock.NewManual(start)
			env := newSimulatedEnvironment(opts.config, clk)

			return sim.run(opts.context(cmd.Context()), cmd, env, clk)
		},
	}

	cmd.Flags().StringVar(&sim.depositor, "depositor", "user", "depositor account")
	cmd.Flags().StringVar(&amount, "amount", "10", "tokens to fund and lock")
	cmd.Flags().Int64Var(&sim.lockOffset, "lock-at", 2, "seconds after the start at which tokens are locked")
	cmd.Flags().Uint64Var(&sim.delaySeconds, "delay", 5, "lock delay in seconds")
	cmd.Flags().Int64Var(&sim.skipSeconds, "skip", 1000, "seconds to skip after withdrawing")

	return cmd
}

// run funds the depositor, approves the vault for an infinite allowance, locks
// at start+lockOffset, checks withdrawals are rejected just before the unlock
// time, withdraws after it, and finally skips ahead in time.
func (s *simulation) run(ctx context.Context, cmd *cobra.Command, env *environment, clk *clock.Manual) error {
	if s.lockOffset < 0 {
		return errors.New("lock offset cannot be negative")
	}

	start := clk.Now()
	at := func(offset int64) error {
		return clk.Set(start.Add(time.Duration(offset) * time.Second))
	}
	out := func(format string, args ...interface{}) {
		offset := int64(clk.Now().Sub(start) / time.Second)
		fmt.Fprintf(cmd.OutOrStdout(), "t=%-4d ", offset)
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}

	vaultAddress := env.vault.Address(ctx)

	if err := env.data.MintTokens(ctx, s.depositor, s.amount); err != nil {
		return errors.Wrap(err, "error funding depositor")
	}
	if err := env.data.ApproveTokens(ctx, s.depositor, vaultAddress, token.MaxAllowance); err != nil {
		return errors.Wrap(err, "error approving vault")
	}

	balance, err := env.data.GetTokenBalance(ctx, s.depositor)
	if err != nil {
		return err
	}
	out("funded %s with %s tokens and approved %s", s.depositor, token.StrFromQuarks(balance), vaultAddress)

	if err := at(s.lockOffset); err != nil {
		return err
	}
	record, err := env.vault.Lock(ctx, s.depositor, s.amount, s.delaySeconds)
	if err != nil {
		return errors.Wrap(err, "error locking tokens")
	}
	out("locked %s tokens for %d seconds", token.StrFromQuarks(record.Amount), s.delaySeconds)

	unlockOffset := s.lockOffset + int64(s.delaySeconds)
	if s.delaySeconds > 0 {
		if err := at(unlockOffset - 1); err != nil {
			return err
		}
		_, err = env.vault.Withdraw(ctx, s.depositor)
		if err != vault.ErrTimeNotElapsed {
			return errors.Errorf("expected early withdraw to be rejected, got: %v", err)
		}
		out("withdraw rejected: %v", err)
	}

	if err := at(unlockOffset + 1); err != nil {
		return err
	}
	state, err := env.vault.GetLock(ctx, s.depositor)
	if err != nil {
		return err
	}
	out("lock is %s", state.State)

	if _, err := env.vault.Withdraw(ctx, s.depositor); err != nil {
		return errors.Wrap(err, "error withdrawing tokens")
	}

	newBalance, err := env.data.GetTokenBalance(ctx, s.depositor)
	if err != nil {
		return err
	}
	if newBalance != balance {
		return errors.Errorf("expected balance %d after withdraw, got %d", balance, newBalance)
	}
	out("withdrew %s tokens, balance is %s", token.StrFromQuarks(record.Amount), token.StrFromQuarks(newBalance))

	before := clk.Now()
	if err := clk.Advance(time.Duration(s.skipSeconds) * time.Second); err != nil {
		return err
	}
	if !clk.Now().After(before) && s.skipSeconds > 0 {
		return errors.New("clock did not move forward")
	}
	out("skipped %d seconds", s.skipSeconds)

	return nil
}
