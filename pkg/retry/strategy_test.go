package retry

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-timelock/pkg/retry/backoff"
)

type recordingSleeper struct {
	slept []time.Duration
}

func (s *recordingSleeper) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func TestRetry_HappyPath(t *testing.T) {
	var calls int
	attempts, err := Retry(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestLimit(t *testing.T) {
	strategy := Limit(2)

	// One iteration has been executed. Try again.
	assert.True(t, strategy(1, errors.New("test")))
	// Two iterations have been executed. Do not try again.
	assert.False(t, strategy(2, errors.New("test")))

	counter, err := Retry(func() error {
		return errors.New("test")
	}, Limit(2))

	assert.EqualError(t, err, "test")
	assert.Equal(t, uint(2), counter)
}

func TestBackoff(t *testing.T) {
	recorder := &recordingSleeper{}
	sleeperImpl = recorder
	defer func() { sleeperImpl = &realSleeper{} }()

	_, err := Retry(
		func() error { return errors.New("test") },
		Limit(4),
		Backoff(backoff.BinaryExponential(time.Second), 3*time.Second),
	)
	assert.Error(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, recorder.slept)
}
