// Package clock provides the time source consulted by the timelock vault.
//
// The vault never reads the wall clock directly, so tests and simulations can
// move time forward deterministically the same way a test chain moves block
// timestamps.
package clock

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrTimeMovedBackwards = errors.New("clock cannot move backwards")
)

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by the wall clock
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Manual is a Clock that only changes when explicitly told to. It never moves
// backwards.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual returns a Manual clock set to start
func NewManual(start time.Time) *Manual {
	return &Manual{
		now: start,
	}
}

// Now implements Clock.Now
func (c *Manual) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.now
}

// Set moves the clock to t, which must not be before the current time
func (c *Manual) Set(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.now) {
		return ErrTimeMovedBackwards
	}

	c.now = t
	return nil
}

// Advance moves the clock forward by d
func (c *Manual) Advance(d time.Duration) error {
	if d < 0 {
		return ErrTimeMovedBackwards
	}

	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	return nil
}
