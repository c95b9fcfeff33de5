package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/code/data/token"
	"github.com/code-payments/code-timelock/pkg/database/query"
)

const defaultListLimit = 25

func newListCmd(opts *rootOptions) *cobra.Command {
	var state, cursor, order string
	var limit uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Page through locks by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedState, err := parseState(state)
			if err != nil {
				return err
			}

			parsedCursor, err := query.CursorFromBase58(cursor)
			if err != nil {
				return err
			}

			direction, err := query.ToOrdering(order)
			if err != nil {
				return errors.Wrap(err, "invalid order")
			}

			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			return listLocks(opts.context(cmd.Context()), env, cmd.OutOrStdout(), parsedState, parsedCursor, limit, direction)
		},
	}

	cmd.Flags().StringVar(&state, "state", "locked", "lock state to list (locked or withdrawn)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor returned by a previous page")
	cmd.Flags().StringVar(&order, "order", "asc", "page order (asc or desc)")
	cmd.Flags().Uint64Var(&limit, "limit", defaultListLimit, "maximum number of locks per page")

	return cmd
}

// listLocks prints a single page of locks, followed by the cursor for the next
// page when one may exist
func listLocks(ctx context.Context, env *environment, out io.Writer, state timelock.State, cursor query.Cursor, limit uint64, direction query.Ordering) error {
	records, err := env.data.GetAllTimelocksByState(ctx, state, cursor, limit, direction)
	if err == timelock.ErrTimelockNotFound {
		fmt.Fprintf(out, "no %s locks\n", state)
		return nil
	} else if err != nil {
		return err
	}

	now := toUnix(env.clock.Now().Unix())
	for _, record := range records {
		status := record.State.String()
		if record.IsWithdrawable(now) {
			status = "withdrawable"
		}

		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\n", record.LockId, record.Depositor, token.StrFromQuarks(record.Amount), record.UnlockAt, status)
	}

	if uint64(len(records)) == limit {
		fmt.Fprintf(out, "next cursor: %s\n", query.ToCursor(records[len(records)-1].Id).ToBase58())
	}
	return nil
}

func parseState(val string) (timelock.State, error) {
	switch val {
	case timelock.StateLocked.String():
		return timelock.StateLocked, nil
	case timelock.StateWithdrawn.String():
		return timelock.StateWithdrawn, nil
	default:
		return timelock.StateUnknown, errors.Errorf("unknown lock state %q", val)
	}
}

func toUnix(seconds int64) uint64 {
	if seconds < 0 {
		return 0
	}
	return uint64(seconds)
}
