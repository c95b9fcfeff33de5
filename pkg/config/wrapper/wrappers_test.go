package wrapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-timelock/pkg/config"
	"github.com/code-payments/code-timelock/pkg/config/memory"
)

// runWrapperTest exercises the default, override, last-known-value and
// unsupported conversion behaviour shared by every typed wrapper
func runWrapperTest[T any](t *testing.T, newWrapper func(config.Config, T) config.Typed[T], defaultValue, overridenValue T, rawOverride interface{}, unsupported interface{}) {
	ctx := context.Background()

	mock := memory.NewConfig(nil)
	wrapper := newWrapper(mock, defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)
	assert.Equal(t, defaultValue, wrapper.Get(ctx))

	// The overriden value is returned when set
	mock.SetValue(rawOverride)
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, overridenValue, val)
	assert.Equal(t, overridenValue, wrapper.Get(ctx))

	// The last observed config value is returned on error
	mock.InduceErrors()
	val, err = wrapper.GetSafe(ctx)
	require.Error(t, err)
	assert.Equal(t, overridenValue, val)

	// The default value is returned when the override no longer has a value
	mock.StopInducingErrors()
	mock.ClearValue()
	val, err = wrapper.GetSafe(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultValue, val)

	// Return an unsupported source value type
	mock.SetValue(unsupported)
	val, err = wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, defaultValue, val)

	wrapper.Shutdown()
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestUint64Config(t *testing.T) {
	runWrapperTest(t, NewUint64Config, uint64(10), uint64(42), []byte("42"), "42")
	runWrapperTest(t, NewUint64Config, uint64(10), uint64(7), uint(7), 1.5)
}

func TestUint64Config_ParseFailure(t *testing.T) {
	mock := memory.NewConfig([]byte("-1"))
	wrapper := NewUint64Config(mock, 3)

	val, err := wrapper.GetSafe(context.Background())
	assert.Error(t, err)
	assert.EqualValues(t, 3, val)

	mock.SetValue(-1)
	_, err = wrapper.GetSafe(context.Background())
	assert.Error(t, err)
}

func TestStringConfig(t *testing.T) {
	runWrapperTest(t, NewStringConfig, "default", "override", []byte("override"), 12)
	runWrapperTest(t, NewStringConfig, "default", "override", "override", 12)
}

func TestDurationConfig(t *testing.T) {
	runWrapperTest(t, NewDurationConfig, time.Second, 5*time.Minute, []byte("5m"), "5m")
	runWrapperTest(t, NewDurationConfig, time.Second, time.Hour, time.Hour, 3600)
}
