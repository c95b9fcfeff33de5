package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/code-timelock/pkg/code/data/timelock"
	"github.com/code-payments/code-timelock/pkg/database/query"
)

type store struct {
	mu      sync.Mutex
	records []*timelock.Record
	last    uint64
}

type ById []*timelock.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory timelock.Store
func New() timelock.Store {
	return &store{}
}

// Save implements timelock.Store.Save
func (s *store) Save(_ context.Context, data *timelock.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if data.State != timelock.StateLocked {
		return timelock.ErrInvalidTimelock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findActive(data.Vault, data.Depositor); item != nil {
		return timelock.ErrActiveLockExists
	}

	s.last++
	data.Id = s.last
	data.LastUpdatedAt = time.Now()
	s.records = append(s.records, data.Clone())

	return nil
}

// MarkWithdrawn implements timelock.Store.MarkWithdrawn
func (s *store) MarkWithdrawn(_ context.Context, data *timelock.Record) error {
	if data.WithdrawnAt == nil {
		return timelock.ErrInvalidTimelock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findById(data.Id)
	if item == nil {
		return timelock.ErrTimelockNotFound
	}
	if item.State != timelock.StateLocked {
		return timelock.ErrStaleTimelockState
	}

	withdrawnAt := *data.WithdrawnAt
	item.State = timelock.StateWithdrawn
	item.WithdrawnAt = &withdrawnAt
	item.LastUpdatedAt = time.Now()

	item.CopyTo(data)

	return nil
}

// GetActiveByDepositor implements timelock.Store.GetActiveByDepositor
func (s *store) GetActiveByDepositor(_ context.Context, vault, depositor string) (*timelock.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findActive(vault, depositor); item != nil {
		return item.Clone(), nil
	}
	return nil, timelock.ErrTimelockNotFound
}

// GetAllByState implements timelock.Store.GetAllByState
func (s *store) GetAllByState(_ context.Context, state timelock.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*timelock.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items := s.findByState(state); len(items) > 0 {
		res := s.filter(items, cursor, limit, direction)

		if len(res) == 0 {
			return nil, timelock.ErrTimelockNotFound
		}

		return res, nil
	}

	return nil, timelock.ErrTimelockNotFound
}

// GetCountByState implements timelock.Store.GetCountByState
func (s *store) GetCountByState(_ context.Context, state timelock.State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findByState(state)
	return uint64(len(items)), nil
}

func (s *store) findById(id uint64) *timelock.Record {
	for _, item := range s.records {
		if item.Id == id {
			return item
		}
	}
	return nil
}

func (s *store) findActive(vault, depositor string) *timelock.Record {
	for _, item := range s.records {
		if item.State == timelock.StateLocked && item.Vault == vault && item.Depositor == depositor {
			return item
		}
	}
	return nil
}

func (s *store) findByState(state timelock.State) []*timelock.Record {
	res := make([]*timelock.Record, 0)
	for _, item := range s.records {
		if item.State == state {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) filter(items []*timelock.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*timelock.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*timelock.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if limit > 0 && len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
