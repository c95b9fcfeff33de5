package vault

import (
	"context"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/metrics"
)

const (
	metricsStructName = "vault.Vault"

	tokensLockedEventName     = "TokensLocked"
	tokensWithdrawnEventName  = "TokensWithdrawn"
	lockRejectedEventName     = "LockRejected"
	lockWithdrawableEventName = "LockWithdrawable"
	timelockCountEventName    = "TimelockCountPollingCheck"

	watcherPollDurationMetricName = "Vault/Watcher/PollDuration"
	watcherNotifiedMetricName     = "Vault/Watcher/NewlyWithdrawable"
)

func recordTokensLockedEvent(ctx context.Context, record *timelock.Record) {
	metrics.RecordEvent(ctx, tokensLockedEventName, map[string]interface{}{
		"lock_id":   record.LockId,
		"depositor": record.Depositor,
		"vault":     record.Vault,
		"amount":    record.Amount,
		"unlock_at": record.UnlockAt,
	})
}

func recordTokensWithdrawnEvent(ctx context.Context, record *timelock.Record) {
	metrics.RecordEvent(ctx, tokensWithdrawnEventName, map[string]interface{}{
		"lock_id":   record.LockId,
		"depositor": record.Depositor,
		"vault":     record.Vault,
		"amount":    record.Amount,
	})
}

func recordLockRejectedEvent(ctx context.Context, operation, depositor string, err error) {
	metrics.RecordEvent(ctx, lockRejectedEventName, map[string]interface{}{
		"operation": operation,
		"depositor": depositor,
		"reason":    err.Error(),
	})
}

func recordLockWithdrawableEvent(ctx context.Context, record *timelock.Record) {
	metrics.RecordEvent(ctx, lockWithdrawableEventName, map[string]interface{}{
		"lock_id":   record.LockId,
		"depositor": record.Depositor,
		"vault":     record.Vault,
		"amount":    record.Amount,
		"unlock_at": record.UnlockAt,
	})
}

func recordTimelockCountEvent(ctx context.Context, state timelock.State, count uint64) {
	metrics.RecordEvent(ctx, timelockCountEventName, map[string]interface{}{
		"count": count,
		"state": state.String(),
	})
}
