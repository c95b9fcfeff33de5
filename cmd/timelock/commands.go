package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
	"github.com/code-payments/code-timelock/pkg/code/vault"
	token_postgres "github.com/code-payments/code-timelock/pkg/code/data/token/postgres"
	timelock_postgres "github.com/code-payments/code-timelock/pkg/code/data/timelock/postgres"
)

func newInitDbCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the token ledger and timelock tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newPersistentEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			for _, schema := range []string{token_postgres.Schema, timelock_postgres.Schema} {
				if _, err := env.db.ExecContext(cmd.Context(), schema); err != nil {
					return errors.Wrap(err, "error creating tables")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "tables created")
			return nil
		},
	}
}

func newFundCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fund <account> <amount>",
		Short: "Mint tokens to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quarks, err := token.StrToQuarks(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid amount")
			}

			env, err := newPersistentEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := opts.context(cmd.Context())
			if err := env.data.MintTokens(ctx, args[0], quarks); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "funded %s with %s tokens\n", args[0], token.StrFromQuarks(quarks))
			return nil
		},
	}
}

func newApproveCmd(opts *rootOptions) *cobra.Command {
	var infinite bool

	cmd := &cobra.Command{
		Use:   "approve <depositor> [amount]",
		Short: "Approve the vault to pull tokens from a depositor",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quarks uint64 = token.MaxAllowance
			if !infinite {
				if len(args) != 2 {
					return errors.New("an amount is required unless --infinite is set")
				}

				var err error
				quarks, err = token.StrToQuarks(args[1])
				if err != nil {
					return errors.Wrap(err, "invalid amount")
				}
			}

			env, err := newPersistentEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := opts.context(cmd.Context())
			if err := env.data.ApproveTokens(ctx, args[0], env.vault.Address(ctx), quarks); err != nil {
				return err
			}

			if infinite {
				fmt.Fprintf(cmd.OutOrStdout(), "approved vault to pull any amount from %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "approved vault to pull %s tokens from %s\n", token.StrFromQuarks(quarks), args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&infinite, "infinite", false, "approve an allowance that is never consumed")

	return cmd
}

func newLockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <depositor> <amount> <delay-seconds>",
		Short: "Lock tokens in the vault for a number of seconds",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			quarks, err := token.StrToQuarks(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid amount")
			}

			delay, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid delay")
			}

			env, err := newPersistentEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			record, err := env.vault.Lock(opts.context(cmd.Context()), args[0], quarks, delay)
			if err != nil {
				return err
			}

			printRecord(cmd, "locked", record)
			return nil
		},
	}
}

func newWithdrawCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <depositor>",
		Short: "Withdraw a depositor's tokens once the unlock time has passed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newPersistentEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			record, err := env.vault.Withdraw(opts.context(cmd.Context()), args[0])
			if err != nil {
				return err
			}

			printRecord(cmd, "withdrew", record)
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <depositor>",
		Short: "Show a depositor's current lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			state, err := env.vault.GetLock(opts.context(cmd.Context()), args[0])
			if err != nil {
				return err
			}

			printLockState(cmd, state)
			return nil
		},
	}
}

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show an account's token balance, or the vault's custodied balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := opts.context(cmd.Context())

			account := env.vault.Address(ctx)
			var balance uint64
			if len(args) == 0 {
				balance, err = env.vault.CustodiedBalance(ctx)
			} else {
				account = args[0]
				balance, err = env.data.GetTokenBalance(ctx, account)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", account, token.StrFromQuarks(balance))
			return nil
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report locks as they become withdrawable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newPersistentEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			if len(schedule) == 0 {
				schedule = opts.config.WatchSchedule
			}

			env.log.WithField("schedule", schedule).Info("watching for withdrawable locks")

			err = vault.NewWatcher(env.vault).Start(opts.context(cmd.Context()), schedule)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule to poll on (eg. \"@every 5s\")")

	return cmd
}

func printRecord(cmd *cobra.Command, action string, record *timelock.Record) {
	fmt.Fprintf(
		cmd.OutOrStdout(),
		"%s %s tokens for %s (lock %s, unlocks at %s)\n",
		action,
		token.StrFromQuarks(record.Amount),
		record.Depositor,
		record.LockId,
		time.Unix(int64(record.UnlockAt), 0).UTC().Format(time.RFC3339),
	)
}

func printLockState(cmd *cobra.Command, state *vault.LockState) {
	if state.State == vault.Unlocked {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", state.Depositor, state.State)
		return
	}

	fmt.Fprintf(
		cmd.OutOrStdout(),
		"%s: %s %s tokens until %s (lock %s)\n",
		state.Depositor,
		state.State,
		token.StrFromQuarks(state.Amount),
		time.Unix(int64(state.UnlockAt), 0).UTC().Format(time.RFC3339),
		state.LockId,
	)
}
