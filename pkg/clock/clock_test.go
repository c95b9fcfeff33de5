package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := NewManual(start)
	assert.Equal(t, start, c.Now())

	require.NoError(t, c.Advance(5*time.Second))
	assert.Equal(t, start.Add(5*time.Second), c.Now())

	require.NoError(t, c.Set(start.Add(5*time.Second)))
	assert.Equal(t, start.Add(5*time.Second), c.Now())

	assert.Equal(t, ErrTimeMovedBackwards, c.Set(start))
	assert.Equal(t, ErrTimeMovedBackwards, c.Advance(-time.Second))
	assert.Equal(t, start.Add(5*time.Second), c.Now())
}

func TestSystem(t *testing.T) {
	before := time.Now()
	now := System().Now()
	assert.False(t, now.Before(before))
}
