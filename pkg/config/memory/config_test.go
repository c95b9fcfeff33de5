package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/config"
)

func TestOverrideLifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue(5 * time.Second)
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, val)

	c.SetValue(time.Minute)
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, val)

	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestInducedErrorsAndShutdown(t *testing.T) {
	ctx := context.Background()

	c := NewConfig("timelock-vault")

	c.InduceErrors()
	_, err := c.Get(ctx)
	assert.Equal(t, errDeveloperInduced, err)

	c.StopInducingErrors()
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "timelock-vault", val)

	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
