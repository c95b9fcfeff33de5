package vault

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/database/query"
	"github.com/code-payments/code-timelock/pkg/metrics"
)

// Watcher observes locks passing their unlock time. No stored state changes
// when that happens, so the watcher surfaces the Locked -> Withdrawable
// transition as a log line and LockWithdrawable event, exactly once per lock.
type Watcher struct {
	log   *logrus.Entry
	vault *Vault

	mu       sync.Mutex
	notified map[string]struct{}
}

func NewWatcher(v *Vault) *Watcher {
	return &Watcher{
		log:      v.log.WithField("type", "vault/watcher"),
		vault:    v,
		notified: make(map[string]struct{}),
	}
}

// Start polls on the provided cron schedule (eg. "@every 1s") until ctx is done
func (w *Watcher) Start(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		_, err := w.Poll(ctx)
		if err != nil && err != context.Canceled {
			w.log.WithError(err).Warn("failure polling locks")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return ctx.Err()
}

// Poll pages through all active locks and returns the ones that became
// withdrawable since the last poll
func (w *Watcher) Poll(ctx context.Context) ([]*timelock.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordDuration(ctx, watcherPollDurationMetricName, time.Since(start))
	}()

	vaultAddress := w.vault.conf.address.Get(ctx)
	batchSize := w.vault.conf.watcherBatchSize.Get(ctx)
	now := toUnixSeconds(w.vault.clock.Now())

	var res []*timelock.Record
	active := make(map[string]struct{})

	cursor := query.EmptyCursor
	for {
		records, err := w.vault.data.GetAllTimelocksByState(ctx, timelock.StateLocked, cursor, batchSize, query.Ascending)
		if err == timelock.ErrTimelockNotFound || (err == nil && len(records) == 0) {
			break
		} else if err != nil {
			return nil, err
		}

		for _, record := range records {
			if record.Vault != vaultAddress {
				continue
			}

			active[record.LockId] = struct{}{}

			if !record.IsWithdrawable(now) {
				continue
			}
			if _, ok := w.notified[record.LockId]; ok {
				continue
			}

			w.notified[record.LockId] = struct{}{}
			res = append(res, record)

			w.log.WithFields(logrus.Fields{
				"lock_id":   record.LockId,
				"depositor": record.Depositor,
				"amount":    record.Amount,
				"unlock_at": record.UnlockAt,
			}).Info("lock is withdrawable")
			recordLockWithdrawableEvent(ctx, record)
		}

		cursor = query.ToCursor(records[len(records)-1].Id)
	}

	metrics.RecordCount(ctx, watcherNotifiedMetricName, uint64(len(res)))

	// Lock IDs are never reused, so withdrawn locks can be forgotten
	for lockId := range w.notified {
		if _, ok := active[lockId]; !ok {
			delete(w.notified, lockId)
		}
	}

	for _, state := range []timelock.State{timelock.StateLocked, timelock.StateWithdrawn} {
		count, err := w.vault.data.GetTimelockCountByState(ctx, state)
		if err != nil {
			return nil, err
		}
		recordTimelockCountEvent(ctx, state, count)
	}

	return res, nil
}
